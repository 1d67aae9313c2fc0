package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/models"
)

func mustLayout(t *testing.T, raw string) layout.Layout {
	t.Helper()
	var l layout.Layout
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("layout %s: %v", raw, err)
	}
	return l
}

type formattedTemplate struct {
	ID     uint                   `json:"id"`
	Name   string                 `json:"name"`
	Type   string                 `json:"type"`
	Layout layout.FormattedLayout `json:"layout"`
}

func TestTemplatesByType(t *testing.T) {
	s := newServer(t)

	drinks := models.Category{BotIdentifier: "shop1", Name: "Drinks"}
	cola := models.Product{BotIdentifier: "shop1", Name: "Cola"}
	back := models.Button{BotIdentifier: "shop1", Code: "back", Label: "Back", ButtonType: layout.TypeURL, Value: "https://x"}
	food := models.Category{BotIdentifier: "shop2", Name: "Food"}
	s.create(&drinks, &cola, &back, &food)

	raw := fmt.Sprintf(`[["category_%d","product_%d","button_%d"],["unknown_5","category_%d"]]`, drinks.ID, cola.ID, back.ID, food.ID)
	s.create(&models.Template{
		BotIdentifier: "shop1",
		Name:          "Start",
		Type:          models.TemplateTypeStart,
		Layout:        models.NewLayoutColumn(mustLayout(t, raw)),
	})

	w := s.do(http.MethodGet, "/telegram/template/by-type/start", shop1Key, nil)
	expect(t, w, http.StatusOK)
	var templates []formattedTemplate
	decode(t, w, &templates)
	if len(templates) != 1 {
		t.Fatalf("templates = %+v", templates)
	}

	want := layout.FormattedLayout{{
		{ID: drinks.ID, Label: "Drinks", ButtonType: layout.TypeCallback, Value: fmt.Sprintf("category/%d", drinks.ID)},
		{ID: cola.ID, Label: "Cola", ButtonType: layout.TypeCallback, Value: fmt.Sprintf("product/%d", cola.ID)},
		{ID: back.ID, Label: "Back", ButtonType: layout.TypeURL, Value: "https://x"},
	}}
	got := templates[0].Layout
	if len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("layout = %+v, want %+v", got, want)
	}
	for i := range want[0] {
		if got[0][i] != want[0][i] {
			t.Fatalf("cell %d = %+v, want %+v", i, got[0][i], want[0][i])
		}
	}

	expect(t, s.do(http.MethodGet, "/telegram/template/by-type/start", shop2Key, nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, "/telegram/template/by-type/product", shop1Key, nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, "/telegram/template/by-type/start", "", nil), http.StatusUnauthorized)
}

func TestLegacyBareButtonIDs(t *testing.T) {
	s := newServer(t)
	back := models.Button{BotIdentifier: "shop1", Code: "back", Label: "Back", ButtonType: layout.TypeCallback, Value: "back"}
	s.create(&back)
	s.create(&models.Template{
		BotIdentifier: "shop1",
		Name:          "Legacy",
		Type:          models.TemplateTypePost,
		Layout:        models.NewLayoutColumn(mustLayout(t, fmt.Sprintf(`[[%d]]`, back.ID))),
	})

	w := s.do(http.MethodGet, "/telegram/template/by-type/post", shop1Key, nil)
	expect(t, w, http.StatusOK)
	var templates []formattedTemplate
	decode(t, w, &templates)
	if len(templates[0].Layout) != 1 || templates[0].Layout[0][0].Label != "Back" {
		t.Fatalf("layout = %+v", templates[0].Layout)
	}
}

func TestStartPost(t *testing.T) {
	s := newServer(t)

	expect(t, s.do(http.MethodGet, "/telegram/post/start", shop1Key, nil), http.StatusNotFound)

	back := models.Button{BotIdentifier: "shop1", Code: "back", Label: "Back", ButtonType: layout.TypeCallback, Value: "back"}
	s.create(&back)
	s.create(&models.Template{
		BotIdentifier: "shop1",
		Name:          "Start",
		Type:          models.TemplateTypeStart,
		Layout:        models.NewLayoutColumn(mustLayout(t, fmt.Sprintf(`[["button_%d"]]`, back.ID))),
	})
	post := models.Post{BotIdentifier: "shop1", Name: "Welcome", TemplateType: models.TemplateTypeStart, Enabled: true}
	hidden := models.Post{BotIdentifier: "shop1", Name: "Hidden", TemplateType: models.TemplateTypePost}
	s.create(&post, &hidden)

	w := s.do(http.MethodGet, "/telegram/post/start", shop1Key, nil)
	expect(t, w, http.StatusOK)
	var resp struct {
		ID           uint               `json:"id"`
		Image        *string            `json:"image"`
		TemplateType string             `json:"template_type"`
		Template     *formattedTemplate `json:"template"`
	}
	decode(t, w, &resp)
	if resp.ID != post.ID || resp.Image != nil || resp.TemplateType != "start" {
		t.Fatalf("post = %+v", resp)
	}
	if resp.Template == nil || len(resp.Template.Layout) != 1 || resp.Template.Layout[0][0].Label != "Back" {
		t.Fatalf("template = %+v", resp.Template)
	}

	expect(t, s.do(http.MethodGet, fmt.Sprintf("/telegram/post/%d", hidden.ID), shop1Key, nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, fmt.Sprintf("/telegram/post/%d", post.ID), shop2Key, nil), http.StatusNotFound)

	w = s.do(http.MethodPatch, fmt.Sprintf("/telegram/post/%d/image-file-id", post.ID), shop1Key, map[string]string{})
	expect(t, w, http.StatusBadRequest)
	w = s.do(http.MethodPatch, fmt.Sprintf("/telegram/post/%d/image-file-id", post.ID), shop2Key, map[string]string{"image_file_id": "x"})
	expect(t, w, http.StatusNotFound)
}

func TestProductPost(t *testing.T) {
	s := newServer(t)
	cola := models.Product{BotIdentifier: "shop1", Name: "Cola", Image: "media/shop1/products/cola.png"}
	s.create(&cola)
	s.create(&models.Template{
		BotIdentifier: "shop1",
		Name:          "Post",
		Type:          models.TemplateTypePost,
		Layout:        models.NewLayoutColumn(nil),
	})

	w := s.do(http.MethodGet, fmt.Sprintf("/telegram/post/product/%d", cola.ID), shop1Key, nil)
	expect(t, w, http.StatusOK)
	var resp struct {
		Post struct {
			Name         string             `json:"name"`
			Image        string             `json:"image"`
			TemplateType string             `json:"template_type"`
			Template     *formattedTemplate `json:"template"`
		} `json:"post"`
	}
	decode(t, w, &resp)
	if resp.Post.Name != "Cola" || resp.Post.Image != publicURL+"/media/shop1/products/cola.png" || resp.Post.TemplateType != "post" {
		t.Fatalf("post = %+v", resp.Post)
	}
	if resp.Post.Template == nil || resp.Post.Template.Layout == nil || len(resp.Post.Template.Layout) != 0 {
		t.Fatalf("template = %+v", resp.Post.Template)
	}
}

func TestTelegramCategory(t *testing.T) {
	s := newServer(t)

	juice := models.Category{BotIdentifier: "shop1", Name: "Juice"}
	cola := models.Product{BotIdentifier: "shop1", Name: "Cola"}
	tea := models.Product{BotIdentifier: "shop1", Name: "Tea"}
	back := models.Button{BotIdentifier: "shop1", Code: "back", Label: "Back", ButtonType: layout.TypeCallback, Value: "back"}
	s.create(&juice, &cola, &tea, &back)

	// tea belongs to the tenant but not to this category, so it is dropped
	raw := fmt.Sprintf(`[["category_%d","product_%d"],["product_%d"],["button_%d"]]`, juice.ID, cola.ID, tea.ID, back.ID)
	root := models.Category{
		BotIdentifier: "shop1",
		Name:          "Drinks",
		IsRoot:        true,
		Layout:        models.NewLayoutColumn(mustLayout(t, raw)),
		Children:      []*models.Category{&juice},
		Products:      []*models.Product{&cola},
	}
	s.create(&root)

	w := s.do(http.MethodGet, "/telegram/catalog/categories/root", shop1Key, nil)
	expect(t, w, http.StatusOK)
	var resp struct {
		ID     uint                   `json:"id"`
		IsRoot bool                   `json:"is_root"`
		Image  string                 `json:"image"`
		Layout layout.FormattedLayout `json:"layout"`
	}
	decode(t, w, &resp)
	if resp.ID != root.ID || !resp.IsRoot || resp.Image != publicURL+"/" {
		t.Fatalf("category = %+v", resp)
	}
	if len(resp.Layout) != 2 || len(resp.Layout[0]) != 2 || resp.Layout[1][0].Label != "Back" {
		t.Fatalf("layout = %+v", resp.Layout)
	}
	if resp.Layout[0][0].Value != fmt.Sprintf("category/%d", juice.ID) {
		t.Fatalf("child button = %+v", resp.Layout[0][0])
	}

	s.db.Model(&juice).Update("image", "media/shop1/categories/juice.png")
	w = s.do(http.MethodGet, fmt.Sprintf("/telegram/catalog/categories/%d", juice.ID), shop1Key, nil)
	expect(t, w, http.StatusOK)
	decode(t, w, &resp)
	if resp.Layout == nil || len(resp.Layout) != 0 {
		t.Fatalf("empty category layout = %#v", resp.Layout)
	}
	if resp.Image != publicURL+"/media/shop1/categories/juice.png" {
		t.Fatalf("category image = %q", resp.Image)
	}

	expect(t, s.do(http.MethodGet, "/telegram/catalog/categories/root", shop2Key, nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, fmt.Sprintf("/telegram/catalog/categories/%d", root.ID), shop2Key, nil), http.StatusNotFound)

	w = s.do(http.MethodPatch, fmt.Sprintf("/telegram/catalog/categories/%d/image-file-id", root.ID), shop1Key, map[string]string{"image_file_id": "AgAD"})
	expect(t, w, http.StatusOK)
}

package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"telegram-catalog/internal/models"
)

func TestMailoutFlow(t *testing.T) {
	s := newServer(t)
	admin := s.bearer(s.admin1)

	cola := models.Product{BotIdentifier: "shop1", Name: "Cola"}
	foreign := models.Product{BotIdentifier: "shop2", Name: "Tea"}
	s.create(&cola, &foreign)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/mailout/send-product/%d", cola.ID), admin, nil)
	expect(t, w, http.StatusOK)
	var send struct {
		Message string `json:"message"`
		Created int    `json:"created"`
	}
	decode(t, w, &send)
	if send.Message != "No active users found" || send.Created != 0 {
		t.Fatalf("send without users = %+v", send)
	}

	s.create(
		&models.User{BotIdentifier: "shop1", ChatID: "1", Status: "active"},
		&models.User{BotIdentifier: "shop1", ChatID: "2", Status: "active"},
		&models.User{BotIdentifier: "shop1", ChatID: "3", Status: "blocked"},
	)

	expect(t, s.do(http.MethodPost, fmt.Sprintf("/api/mailout/send-product/%d", foreign.ID), admin, nil), http.StatusNotFound)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/mailout/send-product/%d", cola.ID), admin, nil)
	expect(t, w, http.StatusOK)
	decode(t, w, &send)
	if send.Created != 2 {
		t.Fatalf("created = %d", send.Created)
	}

	w = s.do(http.MethodGet, "/telegram/mailout/products", shop1Key, nil)
	expect(t, w, http.StatusOK)
	var products struct {
		ProductIDs []uint `json:"product_ids"`
	}
	decode(t, w, &products)
	if len(products.ProductIDs) != 1 || products.ProductIDs[0] != cola.ID {
		t.Fatalf("product ids = %v", products.ProductIDs)
	}

	expect(t, s.do(http.MethodGet, "/telegram/mailout/by-products", shop1Key, nil), http.StatusBadRequest)
	expect(t, s.do(http.MethodGet, "/telegram/mailout/by-products?product_ids=a,b", shop1Key, nil), http.StatusBadRequest)

	w = s.do(http.MethodGet, fmt.Sprintf("/telegram/mailout/by-products?product_ids=%d&limit=1", cola.ID), shop1Key, nil)
	expect(t, w, http.StatusOK)
	var byProducts struct {
		Mailouts []struct {
			ID     uint    `json:"id"`
			ChatID string  `json:"chat_id"`
			Status string  `json:"status"`
			SentAt *string `json:"sent_at"`
		} `json:"mailouts"`
	}
	decode(t, w, &byProducts)
	if len(byProducts.Mailouts) != 1 || byProducts.Mailouts[0].Status != "pending" || byProducts.Mailouts[0].SentAt != nil {
		t.Fatalf("by-products = %+v", byProducts.Mailouts)
	}
	first := byProducts.Mailouts[0].ID

	w = s.do(http.MethodPatch, fmt.Sprintf("/telegram/mailout/%d/status", first), shop1Key, map[string]string{"status": "sent"})
	expect(t, w, http.StatusOK)
	expect(t, s.do(http.MethodPatch, fmt.Sprintf("/telegram/mailout/%d/status", first), shop1Key, map[string]string{"status": "lost"}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPatch, fmt.Sprintf("/telegram/mailout/%d/status", first), shop2Key, map[string]string{"status": "sent"}), http.StatusNotFound)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/mailout/statistics?product_id=%d", cola.ID), admin, nil)
	expect(t, w, http.StatusOK)
	var counts struct {
		Total, Sent, Pending, Failed int
	}
	decode(t, w, &counts)
	if counts.Total != 2 || counts.Sent != 1 || counts.Pending != 1 || counts.Failed != 0 {
		t.Fatalf("statistics = %+v", counts)
	}

	w = s.do(http.MethodGet, "/api/mailout/statistics", admin, nil)
	expect(t, w, http.StatusOK)
	var all map[string]struct {
		ProductID uint `json:"product_id"`
		Total     int  `json:"total"`
	}
	decode(t, w, &all)
	if entry, ok := all[fmt.Sprint(cola.ID)]; !ok || entry.Total != 2 || entry.ProductID != cola.ID {
		t.Fatalf("all statistics = %+v", all)
	}

	expect(t, s.do(http.MethodPost, "/telegram/mailout/delete", shop1Key, `{"ids":[]}`), http.StatusBadRequest)
	w = s.do(http.MethodPost, "/telegram/mailout/delete", shop1Key, map[string]interface{}{"ids": []uint{first}})
	expect(t, w, http.StatusOK)
	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &deleted)
	if deleted.Deleted != 1 {
		t.Fatalf("deleted = %d", deleted.Deleted)
	}
}

package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"telegram-catalog/internal/models"
)

type massUpdateResponse struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

type userList struct {
	Member []struct {
		ID       uint   `json:"id"`
		Name     string `json:"name"`
		ChatID   string `json:"chat_id"`
		Status   string `json:"status"`
		Created  string `json:"created_at"`
		Username string `json:"username"`
	} `json:"member"`
	TotalItems int64 `json:"totalItems"`
}

func TestUsersMassUpdate(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/telegram/users/mass-update", shop1Key, `{"users":[{"chat_id":100,"name":"Ann"},{"name":"nobody"},{"chat_id":"101","status":"blocked"}]}`)
	expect(t, w, http.StatusOK)
	var resp massUpdateResponse
	decode(t, w, &resp)
	if resp.Created != 2 || resp.Updated != 0 || len(resp.Errors) != 1 || resp.Errors[0] != "User at index 1: chat_id is required" {
		t.Fatalf("first batch = %+v", resp)
	}

	w = s.do(http.MethodPost, "/telegram/users/mass-update", shop1Key, `{"users":[{"chat_id":"100","name":"Anna","username":"anna"}]}`)
	expect(t, w, http.StatusOK)
	decode(t, w, &resp)
	if resp.Created != 0 || resp.Updated != 1 || len(resp.Errors) != 0 {
		t.Fatalf("second batch = %+v", resp)
	}

	// the same chat id is a different user for another bot
	w = s.do(http.MethodPost, "/telegram/users/mass-update", shop2Key, `{"users":[{"chat_id":100}]}`)
	expect(t, w, http.StatusOK)
	decode(t, w, &resp)
	if resp.Created != 1 {
		t.Fatalf("shop2 batch = %+v", resp)
	}

	// one new id sent twice plus one existing id, written in a single upsert
	w = s.do(http.MethodPost, "/telegram/users/mass-update", shop2Key, `{"users":[{"chat_id":7,"name":"a"},{"chat_id":"7","name":"b"},{"chat_id":100,"status":"blocked"}]}`)
	expect(t, w, http.StatusOK)
	decode(t, w, &resp)
	if resp.Created != 1 || resp.Updated != 2 {
		t.Fatalf("repeated ids batch = %+v", resp)
	}
	var shop2Users []models.User
	s.db.Where("bot_identifier = ?", "shop2").Order("chat_id").Find(&shop2Users)
	if len(shop2Users) != 2 || shop2Users[0].ChatID != "100" || shop2Users[0].Status != "blocked" || shop2Users[1].Name != "b" {
		t.Fatalf("shop2 users = %+v", shop2Users)
	}

	expect(t, s.do(http.MethodPost, "/telegram/users/mass-update", shop1Key, `{"people":[]}`), http.StatusBadRequest)

	w = s.do(http.MethodGet, "/telegram/users?status=active&created_at_from=not-a-date", shop1Key, nil)
	expect(t, w, http.StatusOK)
	var list userList
	decode(t, w, &list)
	if len(list.Member) != 1 || list.Member[0].ChatID != "100" || list.Member[0].Name != "Anna" || list.Member[0].Username != "anna" {
		t.Fatalf("active users = %+v", list.Member)
	}
	if len(list.Member[0].Created) != len("2006-01-02 15:04:05") {
		t.Fatalf("created_at = %q", list.Member[0].Created)
	}

	w = s.do(http.MethodGet, "/telegram/users?created_at_from=2999-01-01", shop1Key, nil)
	expect(t, w, http.StatusOK)
	decode(t, w, &list)
	if len(list.Member) != 0 {
		t.Fatalf("future filter returned %d users", len(list.Member))
	}
}

func TestAdminUsers(t *testing.T) {
	s := newServer(t)
	admin := s.bearer(s.admin1)

	for i := 0; i < 25; i++ {
		s.create(&models.User{BotIdentifier: "shop1", ChatID: fmt.Sprint(1000 + i), Status: "active"})
	}
	foreign := models.User{BotIdentifier: "shop2", ChatID: "1", Status: "active"}
	s.create(&foreign)

	w := s.do(http.MethodGet, "/api/users?page=2", admin, nil)
	expect(t, w, http.StatusOK)
	var list userList
	decode(t, w, &list)
	if list.TotalItems != 25 || len(list.Member) != 5 {
		t.Fatalf("page 2 = %d of %d", len(list.Member), list.TotalItems)
	}

	expect(t, s.do(http.MethodPost, "/api/users/mass-delete", admin, map[string]interface{}{"ids": []uint{}}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPost, "/api/users/mass-delete", admin, `{"id":1}`), http.StatusBadRequest)

	w = s.do(http.MethodPost, "/api/users/mass-delete", admin, map[string]interface{}{"ids": []uint{list.Member[0].ID, foreign.ID}})
	expect(t, w, http.StatusOK)
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &resp)
	if resp.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", resp.Deleted)
	}
}

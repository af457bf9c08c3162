package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"capellawish/internal/domain"
)

func newListTestEnv() (*ListHandler, *fakeListRepo, *domain.User) {
	lists := newFakeListRepo()
	user := &domain.User{ID: 7, Username: "ada", IsActive: true}
	return NewListHandler(lists, testLogger()), lists, user
}

func createList(t *testing.T, handler *ListHandler, user *domain.User, body map[string]interface{}) *domain.List {
	t.Helper()
	req := jsonRequest(http.MethodPost, "/api/v1/lists", body)
	w := httptest.NewRecorder()
	handler.Create(w, asUser(req, user))
	if w.Code != http.StatusCreated {
		t.Fatalf("Create status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var list domain.List
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode created list: %v", err)
	}
	return &list
}

func TestCreateList(t *testing.T) {
	handler, _, user := newListTestEnv()

	list := createList(t, handler, user, map[string]interface{}{
		"title":     "Birthday",
		"is_shared": true,
	})

	if list.Title != "Birthday" {
		t.Errorf("Title = %q, want %q", list.Title, "Birthday")
	}
	if !list.IsShared {
		t.Error("IsShared = false, want true")
	}
}

func TestCreateListRequiresTitle(t *testing.T) {
	handler, _, user := newListTestEnv()

	req := jsonRequest(http.MethodPost, "/api/v1/lists", map[string]interface{}{
		"description": "no title here",
	})
	w := httptest.NewRecorder()
	handler.Create(w, asUser(req, user))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Create status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateListDuplicateTitle(t *testing.T) {
	handler, _, user := newListTestEnv()
	createList(t, handler, user, map[string]interface{}{"title": "Birthday"})

	req := jsonRequest(http.MethodPost, "/api/v1/lists", map[string]interface{}{"title": "Birthday"})
	w := httptest.NewRecorder()
	handler.Create(w, asUser(req, user))
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate Create status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetListOwnership(t *testing.T) {
	handler, _, user := newListTestEnv()
	list := createList(t, handler, user, map[string]interface{}{"title": "Birthday"})

	t.Run("Owner sees list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/lists/"+list.UUID.String(), nil)
		req.SetPathValue("id", list.UUID.String())
		w := httptest.NewRecorder()
		handler.Get(w, asUser(req, user))
		if w.Code != http.StatusOK {
			t.Errorf("Get status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("Other user gets 404", func(t *testing.T) {
		other := &domain.User{ID: 99, Username: "eve", IsActive: true}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/lists/"+list.UUID.String(), nil)
		req.SetPathValue("id", list.UUID.String())
		w := httptest.NewRecorder()
		handler.Get(w, asUser(req, other))
		if w.Code != http.StatusNotFound {
			t.Errorf("Get status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("Invalid id gets 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/lists/not-a-uuid", nil)
		req.SetPathValue("id", "not-a-uuid")
		w := httptest.NewRecorder()
		handler.Get(w, asUser(req, user))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Get status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestUpdateListPartial(t *testing.T) {
	handler, _, user := newListTestEnv()
	list := createList(t, handler, user, map[string]interface{}{
		"title":       "Birthday",
		"description": "Round numbers only",
		"is_shared":   true,
	})

	req := jsonRequest(http.MethodPut, "/api/v1/lists/"+list.UUID.String(), map[string]interface{}{
		"description": "Any year counts",
	})
	req.SetPathValue("id", list.UUID.String())
	w := httptest.NewRecorder()
	handler.Update(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("Update status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var updated domain.List
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated list: %v", err)
	}
	if updated.Description != "Any year counts" {
		t.Errorf("Description = %q, want %q", updated.Description, "Any year counts")
	}
	if updated.Title != "Birthday" {
		t.Errorf("Title = %q, want unchanged %q", updated.Title, "Birthday")
	}
	if !updated.IsShared {
		t.Error("IsShared reset by partial update")
	}
}

func TestUpdateListRejectsEmptyTitle(t *testing.T) {
	handler, _, user := newListTestEnv()
	list := createList(t, handler, user, map[string]interface{}{"title": "Birthday"})

	req := jsonRequest(http.MethodPut, "/api/v1/lists/"+list.UUID.String(), map[string]interface{}{
		"title": "",
	})
	req.SetPathValue("id", list.UUID.String())
	w := httptest.NewRecorder()
	handler.Update(w, asUser(req, user))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Update status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteListSoftDeletes(t *testing.T) {
	handler, lists, user := newListTestEnv()
	list := createList(t, handler, user, map[string]interface{}{"title": "Birthday"})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/lists/"+list.UUID.String(), nil)
	req.SetPathValue("id", list.UUID.String())
	w := httptest.NewRecorder()
	handler.Delete(w, asUser(req, user))
	if w.Code != http.StatusNoContent {
		t.Fatalf("Delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// Row is kept but flagged, and no longer readable
	stored, ok := lists.lists[list.UUID]
	if !ok {
		t.Fatal("list row removed, want soft delete")
	}
	if !stored.IsDeleted {
		t.Error("IsDeleted = false after delete")
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/lists/"+list.UUID.String(), nil)
	get.SetPathValue("id", list.UUID.String())
	got := httptest.NewRecorder()
	handler.Get(got, asUser(get, user))
	if got.Code != http.StatusNotFound {
		t.Errorf("Get after delete status = %d, want %d", got.Code, http.StatusNotFound)
	}
}

func TestListListsExcludesDeleted(t *testing.T) {
	handler, _, user := newListTestEnv()
	keep := createList(t, handler, user, map[string]interface{}{"title": "Keep"})
	gone := createList(t, handler, user, map[string]interface{}{"title": "Gone"})

	del := httptest.NewRequest(http.MethodDelete, "/api/v1/lists/"+gone.UUID.String(), nil)
	del.SetPathValue("id", gone.UUID.String())
	handler.Delete(httptest.NewRecorder(), asUser(del, user))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil)
	w := httptest.NewRecorder()
	handler.List(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("List status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Lists []*domain.List `json:"lists"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
	if len(resp.Lists) != 1 || resp.Lists[0].UUID != keep.UUID {
		t.Errorf("lists = %v, want only %s", resp.Lists, keep.UUID)
	}
}

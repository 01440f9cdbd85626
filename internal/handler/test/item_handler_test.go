package test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
	"lostfound/internal/service"
)

func multipartRequest(t *testing.T, method, target string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateItemHandler_Multipart(t *testing.T) {
	th := createTestHandler(t)

	th.items.On("CreateItem", mock.Anything, mock.MatchedBy(func(req service.CreateItemRequest) bool {
		if req.Image == nil {
			return false
		}
		data, err := io.ReadAll(req.Image.Reader)
		return err == nil &&
			req.OwnerID == "user-1" &&
			req.Name == "Blue Backpack" &&
			req.DateFound == "2024-03-01" &&
			req.Location == `{"building":"Library"}` &&
			req.Image.FileName == "bag.png" &&
			string(data) == "fake-png"
	})).Return(&models.Item{ItemID: "item-1", OwnerID: "user-1", Name: "Blue Backpack"}, nil)

	req := multipartRequest(t, http.MethodPost, "/items", map[string]string{
		"name":        "Blue Backpack",
		"description": "Found near the desk",
		"category":    "Bags",
		"dateFound":   "2024-03-01",
		"location":    `{"building":"Library"}`,
	}, "bag.png", []byte("fake-png"))

	rr := httptest.NewRecorder()
	th.CreateItem(rr, asUser(req, "user-1"))

	body := assertJSONSuccess(t, rr, http.StatusCreated)
	data := body["data"].(map[string]any)
	assert.Equal(t, "item-1", data["itemId"])
}

func TestCreateItemHandler_JSON(t *testing.T) {
	th := createTestHandler(t)

	th.items.On("CreateItem", mock.Anything, service.CreateItemRequest{
		OwnerID:     "user-1",
		Name:        "Keys",
		Description: "Three keys on a ring",
		Category:    "Keys",
		DateFound:   "2024-03-02",
		Location:    `{"building":"Gym","coordinates":{"lat":1.5,"lng":2.5}}`,
	}).Return(&models.Item{ItemID: "item-2"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{
		"name": "Keys",
		"description": "Three keys on a ring",
		"category": "Keys",
		"dateFound": "2024-03-02",
		"location": {"building":"Gym","coordinates":{"lat":1.5,"lng":2.5}}
	}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	th.CreateItem(rr, asUser(req, "user-1"))

	assertJSONSuccess(t, rr, http.StatusCreated)
}

func TestCreateItemHandler_Errors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		th := createTestHandler(t)

		rr := httptest.NewRecorder()
		th.CreateItem(rr, httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{}`)))

		assertJSONError(t, rr, http.StatusUnauthorized, "authentication required")
	})

	t.Run("malformed body", func(t *testing.T) {
		th := createTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":`))
		rr := httptest.NewRecorder()
		th.CreateItem(rr, asUser(req, "user-1"))

		assertJSONError(t, rr, http.StatusBadRequest, "invalid request body")
	})

	t.Run("upload too large", func(t *testing.T) {
		th := createTestHandler(t)
		th.Cfg.MaxUploadSize = 512

		req := multipartRequest(t, http.MethodPost, "/items", map[string]string{"name": "Big"},
			"big.jpg", bytes.Repeat([]byte{0xff}, 4096))
		rr := httptest.NewRecorder()
		th.CreateItem(rr, asUser(req, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, false, decodeBody(t, rr)["success"])
	})

	t.Run("service validation", func(t *testing.T) {
		th := createTestHandler(t)
		th.items.On("CreateItem", mock.Anything, mock.Anything).
			Return(nil, apperr.Validation("name is required"))

		req := multipartRequest(t, http.MethodPost, "/items", map[string]string{"category": "Bags"}, "", nil)
		rr := httptest.NewRecorder()
		th.CreateItem(rr, asUser(req, "user-1"))

		assertJSONError(t, rr, http.StatusBadRequest, "name is required")
	})
}

func TestListItemsHandler(t *testing.T) {
	th := createTestHandler(t)

	th.items.On("ListItems", mock.Anything, models.ItemFilter{
		Query:    "backpack",
		Category: "Bags",
		Building: "Library",
	}).Return([]models.Item{{ItemID: "item-1"}, {ItemID: "item-2"}}, nil)

	rr := httptest.NewRecorder()
	th.ListItems(rr, httptest.NewRequest(http.MethodGet, "/items?q=+backpack+&category=Bags&building=Library", nil))

	body := assertJSONSuccess(t, rr, http.StatusOK)
	assert.Len(t, body["data"], 2)
}

func TestGetItemHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		th := createTestHandler(t)
		th.items.On("GetItem", mock.Anything, "item-1").Return(&models.Item{ItemID: "item-1", Name: "Keys"}, nil)

		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/items/item-1", nil), map[string]string{"id": "item-1"})
		rr := httptest.NewRecorder()
		th.GetItem(rr, asUser(req, "user-1"))

		body := assertJSONSuccess(t, rr, http.StatusOK)
		assert.Equal(t, "Keys", body["data"].(map[string]any)["name"])
	})

	t.Run("missing", func(t *testing.T) {
		th := createTestHandler(t)
		th.items.On("GetItem", mock.Anything, "nope").Return(nil, apperr.NotFound("item not found"))

		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/items/nope", nil), map[string]string{"id": "nope"})
		rr := httptest.NewRecorder()
		th.GetItem(rr, asUser(req, "user-1"))

		assertJSONError(t, rr, http.StatusNotFound, "item not found")
	})
}

func TestUpdateItemHandler(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		th := createTestHandler(t)

		th.items.On("UpdateItem", mock.Anything, mock.MatchedBy(func(req service.UpdateItemRequest) bool {
			return req.ItemID == "item-1" &&
				req.RequesterID == "user-1" &&
				req.Name != nil && *req.Name == "Green Backpack" &&
				req.Description == nil &&
				req.Location == nil &&
				req.Image == nil
		})).Return(&models.Item{ItemID: "item-1", Name: "Green Backpack"}, nil)

		req := httptest.NewRequest(http.MethodPatch, "/items/item-1", strings.NewReader(`{"name":"Green Backpack"}`))
		req.Header.Set("Content-Type", "application/json")
		req = mux.SetURLVars(req, map[string]string{"id": "item-1"})

		rr := httptest.NewRecorder()
		th.UpdateItem(rr, asUser(req, "user-1"))

		body := assertJSONSuccess(t, rr, http.StatusOK)
		assert.Equal(t, "Green Backpack", body["data"].(map[string]any)["name"])
	})

	t.Run("not the owner", func(t *testing.T) {
		th := createTestHandler(t)
		th.items.On("UpdateItem", mock.Anything, mock.Anything).
			Return(nil, apperr.Forbidden("only the owner can modify this item"))

		req := httptest.NewRequest(http.MethodPatch, "/items/item-1", strings.NewReader(`{"name":"Mine now"}`))
		req = mux.SetURLVars(req, map[string]string{"id": "item-1"})

		rr := httptest.NewRecorder()
		th.UpdateItem(rr, asUser(req, "intruder"))

		assertJSONError(t, rr, http.StatusForbidden, "only the owner")
	})
}

func TestDeleteItemHandler(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		th := createTestHandler(t)
		th.items.On("DeleteItem", mock.Anything, "item-1", "user-1").Return(nil)

		req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/items/item-1", nil), map[string]string{"id": "item-1"})
		rr := httptest.NewRecorder()
		th.DeleteItem(rr, asUser(req, "user-1"))

		body := assertJSONSuccess(t, rr, http.StatusOK)
		assert.Equal(t, "Item deleted", body["message"])
	})

	t.Run("already gone", func(t *testing.T) {
		th := createTestHandler(t)
		th.items.On("DeleteItem", mock.Anything, "item-1", "user-1").Return(apperr.NotFound("item not found"))

		req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/items/item-1", nil), map[string]string{"id": "item-1"})
		rr := httptest.NewRecorder()
		th.DeleteItem(rr, asUser(req, "user-1"))

		assertJSONError(t, rr, http.StatusNotFound, "item not found")
	})
}

func TestListCreatedItemsHandler(t *testing.T) {
	th := createTestHandler(t)
	th.items.On("ListCreatedItems", mock.Anything, "user-1").Return([]models.Item{}, nil)

	rr := httptest.NewRecorder()
	th.ListCreatedItems(rr, asUser(httptest.NewRequest(http.MethodGet, "/users/created-items", nil), "user-1"))

	body := assertJSONSuccess(t, rr, http.StatusOK)
	assert.Empty(t, body["data"])
}

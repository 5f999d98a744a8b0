package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"photo-library/internal/database"

	"github.com/gorilla/mux"
)

// albumResponse mirrors the GetAlbum payload: album fields plus photos.
type albumResponse struct {
	database.Album
	Photos []database.Photo `json:"photos"`
}

func albumVars(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}

func TestCreateAlbum(t *testing.T) {
	h, _ := setupTestHandlers(t)

	body := `{"name": "Summer 2023", "description": "Beach trip"}`
	req := httptest.NewRequest(http.MethodPost, "/api/albums", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateAlbum(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var album database.Album
	decodeJSON(t, w, &album)
	if album.Name != "Summer 2023" || album.Description != "Beach trip" {
		t.Errorf("Album = %+v", album)
	}
	if album.ID < 1 {
		t.Errorf("ID = %d, want a real id", album.ID)
	}
}

func TestCreateAlbumValidation(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/albums", strings.NewReader(`{"description": "nameless"}`))
	w := httptest.NewRecorder()

	h.CreateAlbum(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}

func TestGetAlbumWithPhotos(t *testing.T) {
	h, db := setupTestHandlers(t)
	ctx := context.Background()

	album, err := db.CreateAlbum(ctx, "Ordered", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}

	var ids []int64
	for _, name := range []string{"one.jpg", "two.jpg", "three.jpg"} {
		id, err := db.AddPhoto(ctx, &database.Photo{FilePath: "/lib/" + name, FileName: name})
		if err != nil {
			t.Fatalf("AddPhoto failed: %v", err)
		}
		ids = append(ids, id)
		if err := db.AddPhotoToAlbum(ctx, album.ID, id, nil); err != nil {
			t.Fatalf("AddPhotoToAlbum failed: %v", err)
		}
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/albums/1", http.NoBody), albumVars(album.ID))
	w := httptest.NewRecorder()

	h.GetAlbum(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var resp albumResponse
	decodeJSON(t, w, &resp)

	if resp.Name != "Ordered" {
		t.Errorf("Name = %q, want Ordered", resp.Name)
	}
	if len(resp.Photos) != 3 {
		t.Fatalf("Photos = %d, want 3", len(resp.Photos))
	}
	// Appends keep insertion order.
	for i, want := range ids {
		if resp.Photos[i].ID != want {
			t.Errorf("Photos[%d].ID = %d, want %d", i, resp.Photos[i].ID, want)
		}
	}
}

func TestGetAlbumNotFound(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/albums/99", http.NoBody), albumVars(99))
	w := httptest.NewRecorder()

	h.GetAlbum(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
}

func TestUpdateAlbum(t *testing.T) {
	h, db := setupTestHandlers(t)
	ctx := context.Background()

	album, err := db.CreateAlbum(ctx, "Old Name", "old description")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}

	body := `{"name": "New Name"}`
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPatch, "/api/albums/1", strings.NewReader(body)), albumVars(album.ID))
	w := httptest.NewRecorder()

	h.UpdateAlbum(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	updated, err := db.GetAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetAlbum failed: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("Name = %q, want New Name", updated.Name)
	}
	if updated.Description != "old description" {
		t.Errorf("Description = %q, want untouched", updated.Description)
	}
}

func TestUpdateAlbumEmptyRequest(t *testing.T) {
	h, db := setupTestHandlers(t)

	album, err := db.CreateAlbum(context.Background(), "Stays", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodPatch, "/api/albums/1", strings.NewReader(`{}`)), albumVars(album.ID))
	w := httptest.NewRecorder()

	h.UpdateAlbum(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400 for an empty update", w.Code)
	}
}

func TestAlbumPhotoMembership(t *testing.T) {
	h, db := setupTestHandlers(t)
	ctx := context.Background()

	album, err := db.CreateAlbum(ctx, "Members", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	photoID, err := db.AddPhoto(ctx, &database.Photo{FilePath: "/lib/member.jpg"})
	if err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}

	// Add through the handler.
	body := `{"photoId": ` + strconv.FormatInt(photoID, 10) + `}`
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/api/albums/1/photos", strings.NewReader(body)), albumVars(album.ID))
	w := httptest.NewRecorder()
	h.AddPhotoToAlbum(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("AddPhotoToAlbum status = %d, want 200: %s", w.Code, w.Body.String())
	}

	photos, err := db.GetPhotosInAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetPhotosInAlbum failed: %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("Album holds %d photos, want 1", len(photos))
	}

	// Remove through the handler.
	vars := albumVars(album.ID)
	vars["photoId"] = strconv.FormatInt(photoID, 10)
	req = mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/albums/1/photos/1", http.NoBody), vars)
	w = httptest.NewRecorder()
	h.RemovePhotoFromAlbum(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("RemovePhotoFromAlbum status = %d, want 200", w.Code)
	}

	photos, err = db.GetPhotosInAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetPhotosInAlbum failed: %v", err)
	}
	if len(photos) != 0 {
		t.Errorf("Album holds %d photos after removal, want 0", len(photos))
	}
}

func TestAddPhotoToAlbumValidation(t *testing.T) {
	h, db := setupTestHandlers(t)

	album, err := db.CreateAlbum(context.Background(), "Strict", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/api/albums/1/photos", strings.NewReader(`{}`)), albumVars(album.ID))
	w := httptest.NewRecorder()

	h.AddPhotoToAlbum(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400 without photoId", w.Code)
	}
}

func TestReorderAlbumHandler(t *testing.T) {
	h, db := setupTestHandlers(t)
	ctx := context.Background()

	album, err := db.CreateAlbum(ctx, "Shuffled", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}

	var ids []int64
	for _, name := range []string{"a.jpg", "b.jpg"} {
		id, err := db.AddPhoto(ctx, &database.Photo{FilePath: "/lib/" + name})
		if err != nil {
			t.Fatalf("AddPhoto failed: %v", err)
		}
		ids = append(ids, id)
		if err := db.AddPhotoToAlbum(ctx, album.ID, id, nil); err != nil {
			t.Fatalf("AddPhotoToAlbum failed: %v", err)
		}
	}

	// Swap the two positions.
	body := `{"order": {"` + strconv.FormatInt(ids[0], 10) + `": 1, "` + strconv.FormatInt(ids[1], 10) + `": 0}}`
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPut, "/api/albums/1/order", strings.NewReader(body)), albumVars(album.ID))
	w := httptest.NewRecorder()

	h.ReorderAlbum(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	photos, err := db.GetPhotosInAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetPhotosInAlbum failed: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("Album holds %d photos, want 2", len(photos))
	}
	if photos[0].ID != ids[1] || photos[1].ID != ids[0] {
		t.Errorf("Order = [%d %d], want [%d %d]", photos[0].ID, photos[1].ID, ids[1], ids[0])
	}
}

func TestDeleteAlbumHandler(t *testing.T) {
	h, db := setupTestHandlers(t)
	ctx := context.Background()

	album, err := db.CreateAlbum(ctx, "Doomed", "")
	if err != nil {
		t.Fatalf("CreateAlbum failed: %v", err)
	}
	photoID, err := db.AddPhoto(ctx, &database.Photo{FilePath: "/lib/survivor.jpg"})
	if err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}
	if err := db.AddPhotoToAlbum(ctx, album.ID, photoID, nil); err != nil {
		t.Fatalf("AddPhotoToAlbum failed: %v", err)
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/albums/1", http.NoBody), albumVars(album.ID))
	w := httptest.NewRecorder()

	h.DeleteAlbum(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	gone, err := db.GetAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("GetAlbum failed: %v", err)
	}
	if gone != nil {
		t.Error("Album survived delete")
	}

	// Member photos stay in the library.
	photo, err := db.GetPhoto(ctx, photoID)
	if err != nil {
		t.Fatalf("GetPhoto failed: %v", err)
	}
	if photo == nil {
		t.Error("Photo deleted together with the album")
	}
}

func TestGetAllAlbumsEmpty(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/albums", http.NoBody)
	w := httptest.NewRecorder()

	h.GetAllAlbums(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var albums []database.Album
	decodeJSON(t, w, &albums)
	if albums == nil || len(albums) != 0 {
		t.Errorf("Albums = %v, want empty array", albums)
	}
}

func TestGetAlbumsForPhotoHandler(t *testing.T) {
	h, db := setupTestHandlers(t)
	ctx := context.Background()

	photoID, err := db.AddPhoto(ctx, &database.Photo{FilePath: "/lib/shared.jpg"})
	if err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}
	for _, name := range []string{"Beach", "Archive"} {
		album, err := db.CreateAlbum(ctx, name, "")
		if err != nil {
			t.Fatalf("CreateAlbum failed: %v", err)
		}
		if err := db.AddPhotoToAlbum(ctx, album.ID, photoID, nil); err != nil {
			t.Fatalf("AddPhotoToAlbum failed: %v", err)
		}
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/photos/1/albums", http.NoBody), albumVars(photoID))
	w := httptest.NewRecorder()

	h.GetAlbumsForPhoto(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var albums []database.Album
	decodeJSON(t, w, &albums)
	if len(albums) != 2 {
		t.Fatalf("Albums = %d, want 2", len(albums))
	}
	// Listed in name order.
	if albums[0].Name != "Archive" || albums[1].Name != "Beach" {
		t.Errorf("Order = [%s %s], want [Archive Beach]", albums[0].Name, albums[1].Name)
	}
}

func TestGetAlbumsForPhotoEmpty(t *testing.T) {
	h, db := setupTestHandlers(t)

	photoID, err := db.AddPhoto(context.Background(), &database.Photo{FilePath: "/lib/loner.jpg"})
	if err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/photos/1/albums", http.NoBody), albumVars(photoID))
	w := httptest.NewRecorder()

	h.GetAlbumsForPhoto(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var albums []database.Album
	decodeJSON(t, w, &albums)
	if albums == nil || len(albums) != 0 {
		t.Errorf("Albums = %v, want empty array", albums)
	}
}

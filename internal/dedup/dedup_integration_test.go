package dedup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photo-library/internal/database"
)

// Integration tests run the service against a real SQLite database and,
// for the delete paths, real files under t.TempDir.

// setupTestDB creates a throwaway database under t.TempDir.
func setupTestDB(t testing.TB) *database.Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

// addHashedPhoto inserts a photo row carrying just enough metadata for
// duplicate detection and returns its id.
func addHashedPhoto(t testing.TB, db *database.Database, photo *database.Photo) int64 {
	t.Helper()

	if photo.FileName == "" {
		photo.FileName = filepath.Base(photo.FilePath)
	}
	id, err := db.AddPhoto(context.Background(), photo)
	if err != nil {
		t.Fatalf("AddPhoto(%s) failed: %v", photo.FilePath, err)
	}
	return id
}

func groupByHash(groups []DuplicateGroup, hash string) *DuplicateGroup {
	for i := range groups {
		if groups[i].FileHash == hash {
			return &groups[i]
		}
	}
	return nil
}

func TestFindExactDuplicates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())
	ctx := context.Background()

	idsA := []int64{
		addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a1.jpg", FileHash: "hash-a", FileSize: 10}),
		addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a2.jpg", FileHash: "hash-a", FileSize: 20}),
		addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a3.jpg", FileHash: "hash-a", FileSize: 30}),
	}
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/b1.jpg", FileHash: "hash-b", FileSize: 40})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/b2.jpg", FileHash: "hash-b", FileSize: 50})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/solo.jpg", FileHash: "hash-solo", FileSize: 60})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/nohash.jpg", FileSize: 70})

	groups, err := svc.FindExactDuplicates(ctx)
	if err != nil {
		t.Fatalf("FindExactDuplicates failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Found %d groups, want 2", len(groups))
	}

	groupA := groupByHash(groups, "hash-a")
	if groupA == nil {
		t.Fatal("No group for hash-a")
	}
	if len(groupA.Photos) != 3 {
		t.Fatalf("hash-a group holds %d photos, want 3", len(groupA.Photos))
	}
	for i, want := range idsA {
		if groupA.Photos[i].ID != want {
			t.Errorf("hash-a photo %d: id = %d, want %d", i, groupA.Photos[i].ID, want)
		}
	}
	if groupA.Photos[0].FilePath != "/lib/a1.jpg" {
		t.Errorf("Photos not hydrated: FilePath = %q", groupA.Photos[0].FilePath)
	}

	groupB := groupByHash(groups, "hash-b")
	if groupB == nil {
		t.Fatal("No group for hash-b")
	}
	if len(groupB.Photos) != 2 {
		t.Errorf("hash-b group holds %d photos, want 2", len(groupB.Photos))
	}

	if g := groupByHash(groups, "hash-solo"); g != nil {
		t.Error("Singleton hash reported as a duplicate group")
	}
}

func TestFindExactDuplicatesEmptyLibrary(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())

	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/one.jpg", FileHash: "h1"})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/two.jpg", FileHash: "h2"})

	groups, err := svc.FindExactDuplicates(context.Background())
	if err != nil {
		t.Fatalf("FindExactDuplicates failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Found %d groups in a duplicate-free library, want 0", len(groups))
	}
}

func TestFindDuplicatesInFolder(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())
	ctx := context.Background()

	folderA, _, err := db.AddFolder(ctx, "/lib/a", "a", nil, false)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	folderB, _, err := db.AddFolder(ctx, "/lib/b", "b", nil, false)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}

	// File names sort in insertion order so first-seen hash order is
	// deterministic: hash-x before hash-y.
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a/p1.jpg", FolderID: &folderA.ID, FileHash: "hash-x"})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a/p2.jpg", FolderID: &folderA.ID, FileHash: "hash-y"})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a/p3.jpg", FolderID: &folderA.ID, FileHash: "hash-x"})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a/p4.jpg", FolderID: &folderA.ID, FileHash: "hash-y"})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a/p5.jpg", FolderID: &folderA.ID, FileHash: "hash-z"})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/a/p6.jpg", FolderID: &folderA.ID})

	// Same hash in another folder must not leak into folder A's scan.
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/b/p7.jpg", FolderID: &folderB.ID, FileHash: "hash-x"})

	groups, err := svc.FindDuplicatesInFolder(ctx, folderA.ID)
	if err != nil {
		t.Fatalf("FindDuplicatesInFolder failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Found %d groups, want 2", len(groups))
	}
	if groups[0].FileHash != "hash-x" || groups[1].FileHash != "hash-y" {
		t.Errorf("Group order = [%s %s], want first-seen [hash-x hash-y]",
			groups[0].FileHash, groups[1].FileHash)
	}
	if len(groups[0].Photos) != 2 {
		t.Errorf("hash-x group holds %d photos, want 2 (folder-scoped)", len(groups[0].Photos))
	}
	for _, g := range groups {
		for _, p := range g.Photos {
			if p.FolderID == nil || *p.FolderID != folderA.ID {
				t.Errorf("Photo %d from a foreign folder in group %s", p.ID, g.FileHash)
			}
		}
	}
}

func TestFindDuplicatesInFolderEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())

	groups, err := svc.FindDuplicatesInFolder(context.Background(), 999)
	if err != nil {
		t.Fatalf("FindDuplicatesInFolder failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Found %d groups for an unknown folder, want 0", len(groups))
	}
}

func TestGetDuplicateStatistics(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())
	ctx := context.Background()

	// One original, one byte-identical copy, one unrelated photo.
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/orig.jpg", FileHash: "same", FileSize: 100})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/copy.jpg", FileHash: "same", FileSize: 100})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/other.jpg", FileHash: "different", FileSize: 500})

	stats, err := svc.GetDuplicateStatistics(ctx)
	if err != nil {
		t.Fatalf("GetDuplicateStatistics failed: %v", err)
	}

	if stats.TotalGroups != 1 {
		t.Errorf("TotalGroups = %d, want 1", stats.TotalGroups)
	}
	if stats.TotalDuplicates != 1 {
		t.Errorf("TotalDuplicates = %d, want 1", stats.TotalDuplicates)
	}
	if stats.LargestGroupSize != 2 {
		t.Errorf("LargestGroupSize = %d, want 2", stats.LargestGroupSize)
	}
	if stats.WastedSpaceBytes != 100 {
		t.Errorf("WastedSpaceBytes = %d, want 100", stats.WastedSpaceBytes)
	}
	wantMB := 100.0 / (1024 * 1024)
	if stats.WastedSpaceMB != wantMB {
		t.Errorf("WastedSpaceMB = %v, want %v", stats.WastedSpaceMB, wantMB)
	}
}

func TestGetDuplicateStatisticsKeepsFirstMember(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())

	// Wasted space counts every copy after the first stored photo, so a
	// group of three wastes the second and third sizes only.
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/c1.jpg", FileHash: "same", FileSize: 111})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/c2.jpg", FileHash: "same", FileSize: 222})
	addHashedPhoto(t, db, &database.Photo{FilePath: "/lib/c3.jpg", FileHash: "same", FileSize: 333})

	stats, err := svc.GetDuplicateStatistics(context.Background())
	if err != nil {
		t.Fatalf("GetDuplicateStatistics failed: %v", err)
	}
	if stats.TotalDuplicates != 2 {
		t.Errorf("TotalDuplicates = %d, want 2", stats.TotalDuplicates)
	}
	if stats.WastedSpaceBytes != 555 {
		t.Errorf("WastedSpaceBytes = %d, want 555", stats.WastedSpaceBytes)
	}
	if stats.LargestGroupSize != 3 {
		t.Errorf("LargestGroupSize = %d, want 3", stats.LargestGroupSize)
	}
}

func TestGetDuplicateStatisticsEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())

	stats, err := svc.GetDuplicateStatistics(context.Background())
	if err != nil {
		t.Fatalf("GetDuplicateStatistics failed: %v", err)
	}
	if stats.TotalGroups != 0 || stats.TotalDuplicates != 0 || stats.WastedSpaceBytes != 0 {
		t.Errorf("Empty library stats = %+v, want zeros", stats)
	}
}

func TestDeleteDuplicateToTrash(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	photoDir := t.TempDir()
	trashDir := filepath.Join(t.TempDir(), "trash")
	svc := NewService(db, trashDir)

	src := filepath.Join(photoDir, "copy.jpg")
	if err := os.WriteFile(src, []byte("image bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	id := addHashedPhoto(t, db, &database.Photo{FilePath: src, FileHash: "same", FileSize: 11})

	if err := svc.DeleteDuplicate(ctx, id, false); err != nil {
		t.Fatalf("DeleteDuplicate failed: %v", err)
	}

	// Soft delete: original path gone, bytes recoverable from trash.
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Original file still present after trash: %v", err)
	}
	if _, err := os.Stat(filepath.Join(trashDir, "copy.jpg")); err != nil {
		t.Errorf("Trashed file missing: %v", err)
	}

	photo, err := db.GetPhoto(ctx, id)
	if err != nil {
		t.Fatalf("GetPhoto failed: %v", err)
	}
	if !photo.IsTrashed {
		t.Error("Photo not marked trashed")
	}
}

func TestDeleteDuplicatePermanent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	photoDir := t.TempDir()
	svc := NewService(db, filepath.Join(t.TempDir(), "trash"))

	src := filepath.Join(photoDir, "copy.jpg")
	if err := os.WriteFile(src, []byte("image bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	id := addHashedPhoto(t, db, &database.Photo{FilePath: src, FileHash: "same", FileSize: 11})

	if err := svc.DeleteDuplicate(ctx, id, true); err != nil {
		t.Fatalf("DeleteDuplicate failed: %v", err)
	}

	// Hard delete: both the file and the row are gone.
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("File still present after permanent delete: %v", err)
	}
	photo, err := db.GetPhoto(ctx, id)
	if err != nil {
		t.Fatalf("GetPhoto failed: %v", err)
	}
	if photo != nil {
		t.Error("Photo row survived permanent delete")
	}
}

func TestDeleteDuplicateUnknownPhoto(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, t.TempDir())

	err := svc.DeleteDuplicate(context.Background(), 98765, false)
	if !errors.Is(err, database.ErrPhotoNotFound) {
		t.Errorf("DeleteDuplicate(unknown) err = %v, want ErrPhotoNotFound", err)
	}
}

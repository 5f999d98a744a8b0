package database

import (
	"context"
	"testing"
)

func TestAddTagNormalizes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tag, err := db.AddTag(ctx, "  Vacation ", nil)
	if err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if tag.Name != "vacation" {
		t.Errorf("tag name = %q, want normalized %q", tag.Name, "vacation")
	}

	// Different casing resolves to the same tag.
	same, err := db.AddTag(ctx, "VACATION", nil)
	if err != nil {
		t.Fatalf("second AddTag failed: %v", err)
	}
	if same.ID != tag.ID {
		t.Errorf("AddTag with different case created new tag %d, want %d", same.ID, tag.ID)
	}
}

func TestAddTagEmptyName(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.AddTag(context.Background(), "   ", nil); err == nil {
		t.Error("AddTag with blank name should fail")
	}
}

func TestTagHierarchy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	parent, err := db.AddTag(ctx, "travel", nil)
	if err != nil {
		t.Fatalf("AddTag parent failed: %v", err)
	}

	child, err := db.AddTag(ctx, "europe", &parent.ID)
	if err != nil {
		t.Fatalf("AddTag child failed: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Errorf("child parent = %v, want %d", child.ParentID, parent.ID)
	}

	// Deleting the parent re-parents the child to the top level.
	if err := db.DeleteTag(ctx, parent.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}

	got, err := db.GetTagByName(ctx, "europe")
	if err != nil {
		t.Fatalf("GetTagByName failed: %v", err)
	}
	if got == nil {
		t.Fatal("child tag should survive parent deletion")
	}
	if got.ParentID != nil {
		t.Errorf("child parent after delete = %v, want nil", got.ParentID)
	}

	gone, err := db.GetTagByName(ctx, "travel")
	if err != nil {
		t.Fatalf("GetTagByName failed: %v", err)
	}
	if gone != nil {
		t.Error("deleted tag should not resolve")
	}
}

func TestTagPhotoLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	photoID := addTestPhoto(t, db, "/photos/tagged.jpg", nil)
	otherID := addTestPhoto(t, db, "/photos/other.jpg", nil)

	tag, err := db.AddTag(ctx, "beach", nil)
	if err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}

	if err := db.TagPhoto(ctx, photoID, tag.ID); err != nil {
		t.Fatalf("TagPhoto failed: %v", err)
	}
	// Tagging twice is a no-op, not an error.
	if err := db.TagPhoto(ctx, photoID, tag.ID); err != nil {
		t.Fatalf("repeat TagPhoto failed: %v", err)
	}

	tags, err := db.GetTagsForPhoto(ctx, photoID)
	if err != nil {
		t.Fatalf("GetTagsForPhoto failed: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "beach" {
		t.Errorf("photo tags = %+v, want just beach", tags)
	}

	photos, err := db.GetPhotosByTag(ctx, tag.ID, 0, 0)
	if err != nil {
		t.Fatalf("GetPhotosByTag failed: %v", err)
	}
	if len(photos) != 1 || photos[0].ID != photoID {
		t.Errorf("photos by tag = %+v, want photo %d only", photos, photoID)
	}

	// Untag and verify both directions empty out.
	if err := db.UntagPhoto(ctx, photoID, tag.ID); err != nil {
		t.Fatalf("UntagPhoto failed: %v", err)
	}

	tags, err = db.GetTagsForPhoto(ctx, photoID)
	if err != nil {
		t.Fatalf("GetTagsForPhoto failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("photo should have no tags, got %+v", tags)
	}

	_ = otherID // second photo never tagged; guards against over-broad joins
}

func TestDeleteTagCascadesLinks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	photoID := addTestPhoto(t, db, "/photos/linked.jpg", nil)

	tag, err := db.AddTag(ctx, "old", nil)
	if err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if err := db.TagPhoto(ctx, photoID, tag.ID); err != nil {
		t.Fatalf("TagPhoto failed: %v", err)
	}

	if err := db.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}

	tags, err := db.GetTagsForPhoto(ctx, photoID)
	if err != nil {
		t.Fatalf("GetTagsForPhoto failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("photo_tags links should be gone, got %+v", tags)
	}
}

func TestGetAllTagsSorted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"zebra", "apple", "mango"} {
		if _, err := db.AddTag(ctx, name, nil); err != nil {
			t.Fatalf("AddTag(%q) failed: %v", name, err)
		}
	}

	tags, err := db.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("GetAllTags failed: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("got %d tags, want 3", len(tags))
	}

	want := []string{"apple", "mango", "zebra"}
	for i, tag := range tags {
		if tag.Name != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tag.Name, want[i])
		}
	}
}

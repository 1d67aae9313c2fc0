package catalog_test

import (
	"context"
	"errors"
	"testing"

	"telegram-catalog/internal/catalog"
	"telegram-catalog/internal/database/dbtest"
	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/models"

	"gorm.io/gorm"
)

func seedTree(t *testing.T, db *gorm.DB) (root, drinks, juice, other *models.Category) {
	t.Helper()

	juice = &models.Category{BotIdentifier: "shop1", Name: "Juice"}
	drinks = &models.Category{BotIdentifier: "shop1", Name: "Drinks", Children: []*models.Category{juice}}
	root = &models.Category{BotIdentifier: "shop1", Name: "Root", IsRoot: true, Children: []*models.Category{drinks}}
	other = &models.Category{BotIdentifier: "shop2", Name: "Other"}

	for _, c := range []*models.Category{root, other} {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	return root, drinks, juice, other
}

func TestStoreParentIDs(t *testing.T) {
	db := dbtest.Open(t)
	root, drinks, juice, other := seedTree(t, db)
	store := catalog.NewStore(db)
	ctx := context.Background()

	ids, err := store.ParentIDs(ctx, "shop1", []uint{juice.ID})
	if err != nil {
		t.Fatalf("ParentIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != drinks.ID {
		t.Fatalf("parents of juice = %v, want [%d]", ids, drinks.ID)
	}

	// a foreign parent edge must not be seen from shop1
	if err := db.Model(other).Association("Children").Append(juice); err != nil {
		t.Fatalf("append: %v", err)
	}
	ids, _ = store.ParentIDs(ctx, "shop1", []uint{juice.ID})
	if len(ids) != 1 {
		t.Fatalf("foreign parent leaked: %v", ids)
	}

	ids, _ = store.ParentIDs(ctx, "shop1", []uint{root.ID})
	if len(ids) != 0 {
		t.Fatalf("root has parents: %v", ids)
	}
}

func TestGuardAgainstStore(t *testing.T) {
	db := dbtest.Open(t)
	root, drinks, juice, _ := seedTree(t, db)
	guard := catalog.NewGuard(catalog.NewStore(db))
	ctx := context.Background()

	if err := guard.ValidateChildren(ctx, "shop1", juice.ID, []uint{root.ID}); !errors.Is(err, catalog.ErrCircularReference) {
		t.Fatalf("juice -> root: %v", err)
	}
	if err := guard.ValidateChildren(ctx, "shop1", drinks.ID, []uint{drinks.ID}); !errors.Is(err, catalog.ErrSelfChild) {
		t.Fatalf("drinks -> drinks: %v", err)
	}
	if err := guard.ValidateChildren(ctx, "shop1", root.ID, []uint{juice.ID}); err != nil {
		t.Fatalf("root -> juice: %v", err)
	}
}

func TestStoreSourceIsTenantScoped(t *testing.T) {
	db := dbtest.Open(t)
	seedTree(t, db)
	db.Create(&models.Button{BotIdentifier: "shop1", Code: "back", Label: "Back", ButtonType: layout.TypeURL, Value: "https://x"})
	db.Create(&models.Button{BotIdentifier: "shop2", Code: "foreign", Label: "Foreign", ButtonType: layout.TypeCallback, Value: "f"})
	db.Create(&models.Product{BotIdentifier: "shop1", Name: "Cola"})

	store := catalog.NewStore(db)
	ctx := context.Background()

	buttons, err := store.Buttons(ctx, "shop1")
	if err != nil || len(buttons) != 1 || buttons[0].Label != "Back" {
		t.Fatalf("Buttons = %+v, %v", buttons, err)
	}
	categories, err := store.Categories(ctx, "shop1")
	if err != nil || len(categories) != 3 {
		t.Fatalf("Categories = %+v, %v", categories, err)
	}
	products, err := store.Products(ctx, "shop2")
	if err != nil || len(products) != 0 {
		t.Fatalf("Products(shop2) = %+v, %v", products, err)
	}

	refs, err := layout.NewLoader(store).Load(ctx, "shop1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if refs[layout.IntKey(int64(buttons[0].ID))].Label != "Back" {
		t.Fatal("legacy key missing")
	}
}

func TestStoreByIDRejectsForeign(t *testing.T) {
	db := dbtest.Open(t)
	root, drinks, _, other := seedTree(t, db)
	store := catalog.NewStore(db)
	ctx := context.Background()

	got, err := store.CategoriesByID(ctx, "shop1", []uint{root.ID, drinks.ID, root.ID})
	if err != nil || len(got) != 2 {
		t.Fatalf("CategoriesByID = %d, %v", len(got), err)
	}
	if _, err := store.CategoriesByID(ctx, "shop1", []uint{root.ID, other.ID}); !errors.Is(err, catalog.ErrForeignReference) {
		t.Fatalf("foreign category accepted: %v", err)
	}
	if _, err := store.ProductsByID(ctx, "shop1", []uint{999}); !errors.Is(err, catalog.ErrForeignReference) {
		t.Fatalf("missing product accepted: %v", err)
	}
}

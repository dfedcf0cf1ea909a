package rules

import "sync"

func parent(field, typ, keyField string) ParentRef {
	return ParentRef{Field: field, Type: typ, KeyField: keyField}
}

func optional(field, typ, keyField string) ParentRef {
	return ParentRef{Field: field, Type: typ, KeyField: keyField, Optional: true}
}

func productChild() Rule {
	return Rule{Parents: []ParentRef{parent("product_id", "Product", "product_id")}}
}

// Storefront returns the dependency rules of the storefront catalog.
func Storefront() map[string]Rule {
	return map[string]Rule{
		// product tree
		"Product": {
			Standalone: true,
			CoRestore: []CoRestore{
				{"ProductSEO", "product_id", "product_id"},
				{"ProductCards", "product_id", "product_id"},
				{"ProductInventory", "product_id", "product_id"},
				{"ProductVariant", "product_id", "product_id"},
				{"ProductImage", "product_id", "product_id"},
				{"Attribute", "product_id", "product_id"},
				{"ProductSubCategoryMap", "product_id", "product_id"},
				{"ProductTestimonial", "product_id", "product_id"},
				{"ShippingInfo", "product_id", "product_id"},
			},
		},
		"ProductVariant": {
			Parents:   []ParentRef{parent("product_id", "Product", "product_id")},
			CoRestore: []CoRestore{{"VariantCombination", "variant_id", "variant_id"}},
		},
		"VariantCombination": {
			Parents: []ParentRef{parent("variant_id", "ProductVariant", "variant_id")},
		},
		"ProductImage": {
			Parents: []ParentRef{
				parent("product_id", "Product", "product_id"),
				parent("image_id", ImageType, "image_id"),
			},
		},
		"ProductInventory": productChild(),
		"ProductSEO":       productChild(),
		"ProductCards":     productChild(),
		"ShippingInfo":     productChild(),
		"Attribute": {
			Parents: []ParentRef{
				parent("product_id", "Product", "product_id"),
				optional("parent_id", "Attribute", "attr_id"),
			},
		},
		"ProductSubCategoryMap": {
			Parents: []ParentRef{
				parent("product_id", "Product", "product_id"),
				parent("subcategory_id", "SubCategory", "subcategory_id"),
			},
		},
		"ProductTestimonial": {
			Parents: []ParentRef{
				optional("product_id", "Product", "product_id"),
				optional("subcategory_id", "SubCategory", "subcategory_id"),
			},
		},

		// categories
		"Category": {
			Standalone: true,
			CoRestore: []CoRestore{
				{"CategoryImage", "category_id", "category_id"},
				{"CategorySubCategoryMap", "category_id", "category_id"},
			},
		},
		"CategoryImage": {
			Parents: []ParentRef{
				parent("category_id", "Category", "category_id"),
				parent("image_id", ImageType, "image_id"),
			},
		},
		"SubCategory": {
			Standalone: true,
			CoRestore: []CoRestore{
				{"SubCategoryImage", "subcategory_id", "subcategory_id"},
				{"CategorySubCategoryMap", "subcategory_id", "subcategory_id"},
				{"ProductSubCategoryMap", "subcategory_id", "subcategory_id"},
			},
		},
		"SubCategoryImage": {
			Parents: []ParentRef{
				parent("subcategory_id", "SubCategory", "subcategory_id"),
				parent("image_id", ImageType, "image_id"),
			},
		},
		"CategorySubCategoryMap": {
			Parents: []ParentRef{
				parent("category_id", "Category", "category_id"),
				parent("subcategory_id", "SubCategory", "subcategory_id"),
			},
		},

		// blog
		"BlogPost": {
			Standalone: true,
			CoRestore: []CoRestore{
				{"BlogImage", "blog_id", "blog_id"},
				{"BlogComment", "blog_id", "blog_id"},
			},
		},
		"BlogImage": {
			Parents: []ParentRef{
				parent("blog_id", "BlogPost", "blog_id"),
				parent("image_id", ImageType, "image_id"),
			},
		},
		"BlogComment": {
			Parents: []ParentRef{parent("blog_id", "BlogPost", "blog_id")},
		},

		// carousels
		"FirstCarousel": {
			Standalone: true,
			CoRestore:  []CoRestore{{"FirstCarouselImage", "carousel_id", "id"}},
		},
		"FirstCarouselImage": {
			Parents: []ParentRef{
				parent("carousel_id", "FirstCarousel", "id"),
				parent("image_id", ImageType, "image_id"),
				optional("subcategory_id", "SubCategory", "subcategory_id"),
			},
		},
		"SecondCarousel": {
			Standalone: true,
			CoRestore:  []CoRestore{{"SecondCarouselImage", "carousel_id", "id"}},
		},
		"SecondCarouselImage": {
			Parents: []ParentRef{
				parent("carousel_id", "SecondCarousel", "id"),
				parent("image_id", ImageType, "image_id"),
				optional("subcategory_id", "SubCategory", "subcategory_id"),
			},
		},

		ImageType: {Standalone: true},

		// carts
		"Cart": {
			Standalone: true,
			CoRestore:  []CoRestore{{"CartItem", "cart_id", "cart_id"}},
		},
		"CartItem": {
			Parents: []ParentRef{parent("cart_id", "Cart", "cart_id")},
		},
	}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

func Default() *Table {
	defaultOnce.Do(func() {
		t, err := NewTable(Storefront())
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

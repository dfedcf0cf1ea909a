package catalog

import "sync"

func col(name string, kind Kind) Column { return Column{Name: name, Kind: kind} }

func opt(name string, kind Kind) Column { return Column{Name: name, Kind: kind, Nullable: true} }

func key(name string) Column { return Column{Name: name, Kind: KindText} }

func cascade(column, references string) ForeignKey {
	return ForeignKey{Column: column, References: references, OnDelete: Cascade}
}

func setNull(column, references string) ForeignKey {
	return ForeignKey{Column: column, References: references, OnDelete: SetNull}
}

// Entities returns fresh definitions of the storefront tables.
func Entities() []*Entity {
	return []*Entity{
		{
			Name: "Image", Table: "images", PrimaryKey: "image_id",
			Columns: []Column{
				key("image_id"), opt("image_file", KindFile), col("alt_text", KindText),
				col("width", KindInt), col("height", KindInt), col("tags", KindJSON),
				col("image_type", KindText), col("linked_table", KindText), col("linked_id", KindText),
				col("created_at", KindTime),
			},
		},
		{
			Name: "Category", Table: "categories", PrimaryKey: "category_id",
			Columns: []Column{
				key("category_id"), col("name", KindText), col("status", KindText),
				opt("caption", KindText), opt("description", KindText), col("created_by", KindText),
				col("created_at", KindTime), col("updated_at", KindTime), col("sort_order", KindInt),
			},
		},
		{
			Name: "CategoryImage", Table: "category_images", PrimaryKey: "id",
			Columns: []Column{
				key("id"), key("category_id"), key("image_id"), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("category_id", "Category"), cascade("image_id", "Image")},
		},
		{
			Name: "SubCategory", Table: "subcategories", PrimaryKey: "subcategory_id",
			Columns: []Column{
				key("subcategory_id"), col("name", KindText), col("status", KindText),
				opt("caption", KindText), opt("description", KindText), col("created_by", KindText),
				col("created_at", KindTime), col("updated_at", KindTime), col("sort_order", KindInt),
			},
		},
		{
			Name: "SubCategoryImage", Table: "subcategory_images", PrimaryKey: "id",
			Columns: []Column{
				key("id"), key("subcategory_id"), key("image_id"), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("subcategory_id", "SubCategory"), cascade("image_id", "Image")},
		},
		{
			Name: "CategorySubCategoryMap", Table: "category_subcategory_map", PrimaryKey: "id",
			Columns:     []Column{key("id"), key("category_id"), key("subcategory_id")},
			ForeignKeys: []ForeignKey{cascade("category_id", "Category"), cascade("subcategory_id", "SubCategory")},
		},
		{
			Name: "Product", Table: "products", PrimaryKey: "product_id",
			Columns: []Column{
				key("product_id"), col("title", KindText), col("description", KindText),
				col("brand", KindText), col("price", KindDecimal), col("discounted_price", KindDecimal),
				col("tax_rate", KindFloat), opt("video_url", KindText), col("status", KindText),
				col("created_by", KindText), col("created_at", KindTime), col("updated_at", KindTime),
				col("sort_order", KindInt), col("rating", KindFloat), col("rating_count", KindInt),
			},
		},
		{
			Name: "ProductInventory", Table: "product_inventory", PrimaryKey: "inventory_id",
			Columns: []Column{
				key("inventory_id"), key("product_id"), col("stock_quantity", KindInt),
				col("low_stock_alert", KindInt), col("stock_status", KindText), col("updated_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product")},
		},
		{
			Name: "ProductVariant", Table: "product_variants", PrimaryKey: "variant_id",
			Columns: []Column{
				key("variant_id"), key("product_id"), col("size", KindText), col("color", KindText),
				col("material_type", KindText), col("printing_methods", KindJSON), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product")},
		},
		{
			Name: "VariantCombination", Table: "variant_combinations", PrimaryKey: "combo_id",
			Columns: []Column{
				key("combo_id"), key("variant_id"), col("description", KindText),
				col("price_override", KindDecimal), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("variant_id", "ProductVariant")},
		},
		{
			Name: "ShippingInfo", Table: "shipping_info", PrimaryKey: "shipping_id",
			Columns: []Column{
				key("shipping_id"), key("product_id"), col("shipping_class", KindText),
				col("processing_time", KindText), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product")},
		},
		{
			Name: "ProductSEO", Table: "product_seo", PrimaryKey: "seo_id",
			Columns: []Column{
				key("seo_id"), key("product_id"), col("meta_title", KindText),
				col("meta_description", KindText), col("meta_keywords", KindJSON),
				col("canonical_url", KindText), col("updated_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product")},
		},
		{
			Name: "ProductCards", Table: "product_cards", PrimaryKey: "card_id",
			Columns: []Column{
				key("card_id"), key("product_id"), col("title", KindText),
				col("body", KindText), col("sort_order", KindInt),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product")},
		},
		{
			Name: "ProductSubCategoryMap", Table: "product_subcategory_map", PrimaryKey: "id",
			Columns:     []Column{key("id"), key("product_id"), key("subcategory_id")},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product"), cascade("subcategory_id", "SubCategory")},
		},
		{
			Name: "ProductImage", Table: "product_images", PrimaryKey: "id",
			Columns: []Column{
				key("id"), key("product_id"), key("image_id"), col("caption", KindText),
				col("is_primary", KindBool), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product"), cascade("image_id", "Image")},
		},
		{
			Name: "ProductTestimonial", Table: "product_testimonials", PrimaryKey: "testimonial_id",
			Columns: []Column{
				col("testimonial_id", KindUUID), opt("product_id", KindText), opt("subcategory_id", KindText),
				col("name", KindText), col("email", KindText), col("content", KindText),
				col("rating", KindFloat), col("status", KindText), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("product_id", "Product"), cascade("subcategory_id", "SubCategory")},
		},
		{
			Name: "Attribute", Table: "attributes", PrimaryKey: "attr_id",
			Columns: []Column{
				key("attr_id"), key("product_id"), opt("parent_id", KindText), col("name", KindText),
				col("label", KindText), opt("image_id", KindText), opt("price_delta", KindDecimal),
				col("is_default", KindBool),
			},
			ForeignKeys: []ForeignKey{
				cascade("product_id", "Product"), cascade("parent_id", "Attribute"), setNull("image_id", "Image"),
			},
		},
		{
			Name: "BlogPost", Table: "blog_posts", PrimaryKey: "blog_id",
			Columns: []Column{
				key("blog_id"), col("title", KindText), col("slug", KindText), col("content_html", KindText),
				col("author", KindText), col("tags", KindText), opt("publish_date", KindTime),
				col("draft", KindBool), col("status", KindText), col("created_at", KindTime), col("updated_at", KindTime),
			},
		},
		{
			Name: "BlogImage", Table: "blog_images", PrimaryKey: "id",
			Columns: []Column{
				key("id"), key("blog_id"), key("image_id"), col("caption", KindText),
				col("is_primary", KindBool), col("sort_order", KindInt),
			},
			ForeignKeys: []ForeignKey{cascade("blog_id", "BlogPost"), cascade("image_id", "Image")},
		},
		{
			Name: "BlogComment", Table: "blog_comments", PrimaryKey: "comment_id",
			Columns: []Column{
				col("comment_id", KindUUID), key("blog_id"), col("name", KindText), col("email", KindText),
				col("website", KindText), col("comment", KindText), col("created_at", KindTime),
			},
			ForeignKeys: []ForeignKey{cascade("blog_id", "BlogPost")},
		},
		{
			Name: "FirstCarousel", Table: "first_carousels", PrimaryKey: "id",
			Columns: []Column{key("id"), col("title", KindText), col("description", KindText)},
		},
		{
			Name: "FirstCarouselImage", Table: "first_carousel_images", PrimaryKey: "id",
			Columns: []Column{
				key("id"), key("carousel_id"), key("image_id"), opt("subcategory_id", KindText),
				col("title", KindText), col("caption", KindText), col("sort_order", KindInt),
			},
			ForeignKeys: []ForeignKey{
				cascade("carousel_id", "FirstCarousel"), cascade("image_id", "Image"), setNull("subcategory_id", "SubCategory"),
			},
		},
		{
			Name: "SecondCarousel", Table: "second_carousels", PrimaryKey: "id",
			Columns: []Column{key("id"), col("title", KindText), col("description", KindText)},
		},
		{
			Name: "SecondCarouselImage", Table: "second_carousel_images", PrimaryKey: "id",
			Columns: []Column{
				key("id"), key("carousel_id"), key("image_id"), opt("subcategory_id", KindText),
				col("title", KindText), col("caption", KindText), col("sort_order", KindInt),
			},
			ForeignKeys: []ForeignKey{
				cascade("carousel_id", "SecondCarousel"), cascade("image_id", "Image"), setNull("subcategory_id", "SubCategory"),
			},
		},
		{
			Name: "Cart", Table: "carts", PrimaryKey: "cart_id",
			Columns: []Column{
				key("cart_id"), opt("device_uuid", KindText), col("created_at", KindTime), col("updated_at", KindTime),
			},
		},
		{
			Name: "CartItem", Table: "cart_items", PrimaryKey: "item_id",
			Columns: []Column{
				key("item_id"), key("cart_id"), key("product_id"), col("quantity", KindInt),
				col("price_per_unit", KindDecimal), col("subtotal", KindDecimal),
				opt("selected_size", KindText), col("selected_attributes", KindJSON),
			},
			ForeignKeys: []ForeignKey{cascade("cart_id", "Cart"), cascade("product_id", "Product")},
		},
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default is the storefront registry. It panics on a malformed definition,
// which can only happen through a programming error in Entities.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(Entities()...)
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

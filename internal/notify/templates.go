package notify

import (
	"fmt"

	"go-storefront-admin/internal/model"
)

// Template renders the feed message for one mutation, or "" to stay silent.
type Template func(action string, data model.RecordData) string

func labelled(noun string, field string) Template {
	return func(action string, data model.RecordData) string {
		return fmt.Sprintf("%s '%s' was %s.", noun, data.String(field), action)
	}
}

func createdOrUpdated(t Template) Template {
	return func(action string, data model.RecordData) string {
		if action == model.ActionDeleted {
			return ""
		}
		return t(action, data)
	}
}

func testimonial(action string, data model.RecordData) string {
	if action != model.ActionCreated {
		return ""
	}
	target := "product " + data.String("product_id")
	if data.String("product_id") == "" {
		target = "subcategory " + data.String("subcategory_id")
	}
	return fmt.Sprintf("%s has commented on the %s\nComment: %s", data.String("name"), target, data.String("content"))
}

func cartItem(action string, data model.RecordData) string {
	switch action {
	case model.ActionCreated:
		return fmt.Sprintf("Item '%s' was added to cart '%s'.", data.String("item_id"), data.String("cart_id"))
	case model.ActionDeleted:
		return fmt.Sprintf("Item '%s' was removed from cart '%s'.", data.String("item_id"), data.String("cart_id"))
	default:
		return fmt.Sprintf("Item '%s' in cart '%s' was updated.", data.String("item_id"), data.String("cart_id"))
	}
}

// DefaultTemplates are the storefront feed messages. Types without a
// template never notify.
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		"Product":            labelled("Product", "title"),
		"Category":           createdOrUpdated(labelled("Category", "name")),
		"SubCategory":        createdOrUpdated(labelled("Subcategory", "name")),
		"BlogPost":           createdOrUpdated(labelled("Blog", "title")),
		"ProductTestimonial": testimonial,
		"Cart":               labelled("Cart", "cart_id"),
		"CartItem":           cartItem,
	}
}

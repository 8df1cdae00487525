package resource

// Default returns the built-in catalog covering every collection the admin
// panel manages. Deployments can override it with a YAML catalog via FromYAML.
func Default() Catalog {
	return Catalog{Resources: []Schema{
		{
			Name: "events", Title: "Events", Path: "/events",
			Fields: []Field{
				{Name: "title", Kind: String, Required: true},
				{Name: "description", Kind: RichText, Required: true},
				{Name: "venue", Kind: Reference, Ref: "venues"},
				{Name: "date", Kind: String, Required: true},
				{Name: "artists", Kind: Reference, Ref: "artists", Multi: true},
				{Name: "images", Kind: Media, Required: true, MinItems: 1},
				{Name: "published", Kind: Bool},
				{Name: "ticketCategories", Kind: Nested, Elem: []Field{
					{Name: "name", Kind: String, Required: true},
					{Name: "price", Kind: Float, Required: true, Positive: true},
					{Name: "quantity", Kind: Int, Required: true, Positive: true},
					{Name: "perks", Kind: String, Multi: true},
				}},
			},
		},
		{
			Name: "products", Title: "Products", Path: "/product",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "description", Kind: RichText, Required: true},
				{Name: "price", Kind: Float, Required: true, Positive: true},
				{Name: "quantity", Kind: Int, Required: true, Positive: true},
				{Name: "category", Kind: Reference, Ref: "categories", Required: true},
				{Name: "images", Kind: Media, Required: true, MinItems: 1},
				{Name: "inStock", Kind: Bool},
			},
		},
		{
			Name: "artists", Title: "Artists", Path: "/artist",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "bio", Kind: RichText},
				{Name: "genre", Kind: String},
				{Name: "images", Kind: Media, MinItems: 1, Required: true},
			},
		},
		{
			Name: "categories", Title: "Categories", Path: "/category",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "description", Kind: String},
				{Name: "image", Kind: Media},
			},
		},
		{
			Name: "subcategories", Title: "Subcategories", Path: "/subcategory",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "category", Kind: Reference, Ref: "categories", Required: true},
			},
		},
		{
			Name: "news", Title: "News", Path: "/news",
			Fields: []Field{
				{Name: "title", Kind: String, Required: true},
				{Name: "body", Kind: RichText, Required: true},
				{Name: "images", Kind: Media},
				{Name: "publishedAt", Kind: String},
			},
		},
		{
			Name: "bookings", Title: "Bookings", Path: "/booking",
			Fields: []Field{
				{Name: "event", Kind: Reference, Ref: "events", Required: true},
				{Name: "customerName", Kind: String, Required: true},
				{Name: "customerEmail", Kind: String, Required: true},
				{Name: "seats", Kind: Int, Required: true, Positive: true},
				{Name: "confirmed", Kind: Bool},
			},
		},
		{
			Name: "gallery", Title: "Gallery", Path: "/gallery",
			Fields: []Field{
				{Name: "title", Kind: String, Required: true},
				{Name: "images", Kind: Media, Required: true, MinItems: 1},
				{Name: "tags", Kind: String, Multi: true},
			},
		},
		{
			Name: "banners", Title: "Banners", Path: "/banner",
			Fields: []Field{
				{Name: "title", Kind: String, Required: true},
				{Name: "link", Kind: String},
				{Name: "image", Kind: Media, Required: true, MinItems: 1},
				{Name: "active", Kind: Bool},
			},
		},
		{
			Name: "testimonials", Title: "Testimonials", Path: "/testimonial",
			Fields: []Field{
				{Name: "author", Kind: String, Required: true},
				{Name: "quote", Kind: RichText, Required: true},
				{Name: "avatar", Kind: Media},
			},
		},
		{
			Name: "team", Title: "Team", Path: "/team",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "role", Kind: String, Required: true},
				{Name: "bio", Kind: RichText},
				{Name: "photo", Kind: Media},
			},
		},
		{
			Name: "pages", Title: "Pages", Path: "/page",
			Fields: []Field{
				{Name: "slug", Kind: String, Required: true},
				{Name: "title", Kind: String, Required: true},
				{Name: "content", Kind: RichText, Required: true},
			},
		},
		{
			Name: "enquiries", Title: "Enquiries", Path: "/enquiry",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "email", Kind: String, Required: true},
				{Name: "message", Kind: String, Required: true},
				{Name: "resolved", Kind: Bool},
			},
		},
		{
			Name: "orders", Title: "Orders", Path: "/order",
			Fields: []Field{
				{Name: "product", Kind: Reference, Ref: "products", Required: true},
				{Name: "quantity", Kind: Int, Required: true, Positive: true},
				{Name: "customerName", Kind: String, Required: true},
				{Name: "status", Kind: String, Required: true},
			},
		},
		{
			Name: "coupons", Title: "Coupons", Path: "/coupon",
			Fields: []Field{
				{Name: "code", Kind: String, Required: true},
				{Name: "discountPercent", Kind: Int, Required: true, Positive: true},
				{Name: "active", Kind: Bool},
			},
		},
		{
			Name: "venues", Title: "Venues", Path: "/venue",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "address", Kind: String, Required: true},
				{Name: "capacity", Kind: Int, Positive: true},
				{Name: "images", Kind: Media},
			},
		},
		{
			Name: "sponsors", Title: "Sponsors", Path: "/sponsor",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "website", Kind: String},
				{Name: "logo", Kind: Media, Required: true, MinItems: 1},
			},
		},
		{
			Name: "faqs", Title: "FAQs", Path: "/faq",
			Fields: []Field{
				{Name: "question", Kind: String, Required: true},
				{Name: "answer", Kind: RichText, Required: true},
			},
		},
		{
			Name: "tags", Title: "Tags", Path: "/tag",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
			},
		},
		{
			Name: "settings", Title: "Settings", Path: "/setting",
			Fields: []Field{
				{Name: "key", Kind: String, Required: true},
				{Name: "value", Kind: String, Required: true},
			},
		},
		{
			Name: "projects", Title: "Projects", Path: "/project",
			Fields: []Field{
				{Name: "title", Kind: String, Required: true},
				{Name: "description", Kind: RichText, Required: true},
				{Name: "category", Kind: Reference, Ref: "categories", Required: true},
				{Name: "subcategory", Kind: Reference, Ref: "subcategories"},
				{Name: "images", Kind: Media, Required: true, MinItems: 1},
			},
		},
		{
			Name: "clients", Title: "Clients", Path: "/client",
			Fields: []Field{
				{Name: "name", Kind: String, Required: true},
				{Name: "logo", Kind: Media},
			},
		},
		{
			Name: "services", Title: "Services", Path: "/service",
			Fields: []Field{
				{Name: "title", Kind: String, Required: true},
				{Name: "description", Kind: RichText, Required: true},
				{Name: "icon", Kind: Media},
			},
		},
	}}
}

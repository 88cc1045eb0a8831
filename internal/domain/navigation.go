package domain

// NavItem is one sidebar entry. Icon is a symbolic name; the client maps it
// to its own icon set.
type NavItem struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var navigation = []NavItem{
	{Name: "OVERVIEW", Icon: "home"},
	{Name: "OFFERS", Icon: "tag"},
	{Name: "ORDERS", Icon: "shopping-cart"},
	{Name: "GEO", Icon: "globe"},
	{Name: "PRODUCT INSIGHTS", Icon: "bar-chart-2"},
	{Name: "ALERTS & INSIGHTS", Icon: "alert-triangle"},
	{Name: "ADMIN", Icon: "shield"},
}

// Navigation returns the sidebar items in display order.
func Navigation() []NavItem {
	return append([]NavItem(nil), navigation...)
}

package models

// ViewRoute binds a dashboard path to the view it renders and the roles allowed to see it.
// An empty AllowedRoles means the path is public.
type ViewRoute struct {
	Path         string `json:"path"`
	View         string `json:"view"`
	AllowedRoles []Role `json:"allowed_roles,omitempty"`
}

// Public reports whether the route needs no identity.
func (r ViewRoute) Public() bool {
	return len(r.AllowedRoles) == 0
}

// RouteDecision is the outcome of resolving a path for a caller.
type RouteDecision struct {
	Path       string `json:"path"`
	Allowed    bool   `json:"allowed"`
	View       string `json:"view,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

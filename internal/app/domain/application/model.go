// Package application defines the canonical marketplace application record.
package application

import "time"

// Identity groups the descriptive fields of an application as shown in the
// marketplace listing.
type Identity struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Icon          string   `json:"icon,omitempty"`
	Description   string   `json:"description,omitempty"`
	Website       string   `json:"website,omitempty"`
	Repository    string   `json:"repository,omitempty"`
	Categories    []string `json:"categories"`
	Compatibility []string `json:"compatibility"`
}

// Publication is the requested/published pair governing marketplace
// visibility. Published is only ever granted outside this service; withdrawing
// a request forces it back to false.
type Publication struct {
	Published bool `json:"published"`
	Requested bool `json:"requested"`
}

// Stats carries bookkeeping fields maintained by the lifecycle service.
// Version increases by exactly one on every successful update.
type Stats struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// API holds the integration credentials of an application. PrivateKey is
// generated once at creation and never rewritten.
type API struct {
	HooksURL   string `json:"hooks_url,omitempty"`
	AllowedIPs string `json:"allowed_ips,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
}

// Access lists the capability tokens granted to an application, one ordered
// sequence per scope.
type Access struct {
	Read   []string `json:"read"`
	Write  []string `json:"write"`
	Delete []string `json:"delete"`
	Hooks  []string `json:"hooks"`
}

// Application is the structured marketplace application record. ID and
// CompanyID are immutable after creation.
type Application struct {
	ID          string      `json:"id"`
	CompanyID   string      `json:"company_id"`
	IsDefault   bool        `json:"is_default"`
	Identity    Identity    `json:"identity"`
	Publication Publication `json:"publication"`
	Stats       Stats       `json:"stats"`
	API         API         `json:"api"`
	Access      Access      `json:"access"`
	Display     *Display    `json:"display,omitempty"`
}

// Clone returns a deep copy so stored records cannot be mutated through
// returned values.
func (a Application) Clone() Application {
	a.Identity.Categories = cloneStrings(a.Identity.Categories)
	a.Identity.Compatibility = cloneStrings(a.Identity.Compatibility)
	a.Access.Read = cloneStrings(a.Access.Read)
	a.Access.Write = cloneStrings(a.Access.Write)
	a.Access.Delete = cloneStrings(a.Access.Delete)
	a.Access.Hooks = cloneStrings(a.Access.Hooks)
	a.Display = a.Display.Clone()
	return a
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}

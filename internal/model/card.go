package model

// Card is the domain model for one employee's contact card.
// JSON names double as the CSV header tokens of a feed.
type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Website     string `json:"website"`
	PhotoURL    string `json:"photoUrl"`
	LogoURL     string `json:"logoUrl"`
}

// Field names in display and header order.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldTitle       = "title"
	FieldCompanyName = "companyName"
	FieldPhone       = "phone"
	FieldEmail       = "email"
	FieldWebsite     = "website"
	FieldPhotoURL    = "photoUrl"
	FieldLogoURL     = "logoUrl"
)

var FieldNames = []string{
	FieldID, FieldName, FieldTitle, FieldCompanyName, FieldPhone,
	FieldEmail, FieldWebsite, FieldPhotoURL, FieldLogoURL,
}

// RequiredFields are the inputs a card form cannot leave blank.
var RequiredFields = []string{FieldName, FieldTitle, FieldCompanyName, FieldEmail}

// Template is the all-empty default card that decoded rows are laid over.
func Template() Card { return Card{} }

// Get returns the value of the named field and whether the name is known.
func (c Card) Get(field string) (string, bool) {
	if p := c.ptr(field); p != nil {
		return *p, true
	}
	return "", false
}

// Set assigns the named field. Unknown names are ignored and report false.
func (c *Card) Set(field, value string) bool {
	p := c.ptr(field)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (c *Card) ptr(field string) *string {
	switch field {
	case FieldID:
		return &c.ID
	case FieldName:
		return &c.Name
	case FieldTitle:
		return &c.Title
	case FieldCompanyName:
		return &c.CompanyName
	case FieldPhone:
		return &c.Phone
	case FieldEmail:
		return &c.Email
	case FieldWebsite:
		return &c.Website
	case FieldPhotoURL:
		return &c.PhotoURL
	case FieldLogoURL:
		return &c.LogoURL
	}
	return nil
}

// Missing lists required fields that are blank.
func (c Card) Missing() []string {
	var out []string
	for _, f := range RequiredFields {
		if v, _ := c.Get(f); v == "" {
			out = append(out, f)
		}
	}
	return out
}

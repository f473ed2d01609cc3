package model

// Seed is the fixed roster written on first use of an empty store.
// A fresh slice is returned on every call.
func Seed() []Card {
	return []Card{
		{
			ID:          "d8a8f8b8-4b7b-4b7b-8b8b-8b8b8b8b8b8b",
			Name:        "Alex Johnson",
			Title:       "Senior Software Engineer",
			CompanyName: "Innovatech Solutions",
			Phone:       "+1-202-555-0178",
			Email:       "alex.j@innovatech.com",
			Website:     "innovatech.com",
			PhotoURL:    "https://picsum.photos/seed/alex/400",
			LogoURL:     "https://picsum.photos/seed/logo1/200",
		},
		{
			ID:          "c7a7f7b7-3b7b-3b7b-7b7b-7b7b7b7b7b7b",
			Name:        "Samantha Carter",
			Title:       "Lead UX Designer",
			CompanyName: "Innovatech Solutions",
			Phone:       "+1-202-555-0182",
			Email:       "sam.c@innovatech.com",
			Website:     "innovatech.com",
			PhotoURL:    "https://picsum.photos/seed/samantha/400",
			LogoURL:     "https://picsum.photos/seed/logo1/200",
		},
		{
			ID:          "b6a6f6b6-2b6b-2b6b-6b6b-6b6b6b6b6b6b",
			Name:        "Michael Chen",
			Title:       "Product Manager",
			CompanyName: "NextGen Systems",
			Phone:       "+1-310-555-0145",
			Email:       "michael.chen@nextgen.io",
			Website:     "nextgen.io",
			PhotoURL:    "https://picsum.photos/seed/michael/400",
			LogoURL:     "https://picsum.photos/seed/logo2/200",
		},
	}
}

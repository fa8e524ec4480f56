package manifest

// intp is a shorthand for priority literals in the default manifest.
func intp(n int) *int { return &n }

// Default returns the built-in manifest used when no persisted manifest
// exists or durable storage is unreachable. The chat feature degrades to
// this rather than failing outright.
func Default() Manifest {
	return Manifest{
		Version: "2.0.0",
		Sections: map[string]SectionConfig{
			"profiles": {
				Table:           "profiles",
				Columns:         []string{"name", "title", "short_bio"},
				Priority:        intp(1),
				AlwaysInclude:   true,
				SummaryTemplate: "{name} is a developer with expertise in {title}. {short_bio}",
			},
			"contacts": {
				Table:               "contacts",
				Columns:             []string{"value", "contact_types(name, icon)"},
				Priority:            intp(2),
				AlwaysInclude:       true,
				ItemSummaryTemplate: "Contact via {contact_types.name}: {value}",
			},
			"timelines": {
				Table:               "timelines",
				Columns:             []string{"title", "time", "short_description", "timeline_categories(name)", "timeline_technologies(technology)"},
				Priority:            intp(3),
				ItemSummaryTemplate: "{title} ({time}): {short_description}",
			},
			"portfolios": {
				Table:               "portfolios",
				Columns:             []string{"title", "short_description", "live_link", "portfolio_technologies(technology)"},
				Priority:            intp(4),
				ItemSummaryTemplate: "Project: {title} - {short_description}. Live: {live_link}",
			},
			"blogs": {
				Table:               "blogs",
				Columns:             []string{"title", "excerpt", "slug", "category", "date"},
				Priority:            intp(5),
				ItemSummaryTemplate: "Blog: {title} ({date}) - {excerpt}",
			},
		},
		RetrievalRules: RetrievalRules{
			DefaultTopK: 6,
			MaxItemsPerTable: map[string]int{
				"timelines":  4,
				"portfolios": 3,
				"blogs":      3,
			},
		},
	}
}

// DefaultEnabled returns the toggle map matching the default manifest.
func DefaultEnabled() EnabledSections {
	return EnabledSections{
		"profiles":   true,
		"contacts":   true,
		"timelines":  true,
		"portfolios": true,
		"blogs":      true,
	}
}

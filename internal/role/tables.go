package role

// Label is a canonical role and the phrases that map to it
type Label struct {
	Name     string
	Synonyms []string
}

// defaultLabels is checked in order; on equal scores the earlier label wins
var defaultLabels = []Label{
	{"Software Engineer", []string{
		"software engineer", "software developer", "programmer", "developer", "software dev",
		"sw engineer", "se", "swe", "sde", "sd1", "sd2", "senior software engineer",
		"full stack developer", "backend developer", "frontend developer",
	}},
	{"Cybersecurity Specialist", []string{
		"cybersecurity specialist", "cyber security specialist", "security engineer",
		"information security analyst", "infosec analyst", "soc analyst", "security analyst",
		"application security engineer", "appsec", "security operations",
	}},
	{"Accountant", []string{
		"accountant", "accounts executive", "senior accountant", "staff accountant",
		"financial accountant", "general ledger accountant", "gl accountant",
	}},
	{"Project Manager", []string{
		"project manager", "pm", "technical project manager", "it project manager",
		"program manager", "delivery manager", "scrum master",
	}},
	{"Digital Marketer", []string{
		"digital marketer", "digital marketing specialist", "performance marketer",
		"seo specialist", "sem specialist", "social media marketer", "growth marketer",
		"ppc specialist",
	}},
}

// DefaultLabels returns the built-in role table. Callers must not modify it.
func DefaultLabels() []Label { return defaultLabels }

// titleHeads are the words a job title line usually contains
var titleHeads = []string{
	"engineer", "developer", "scientist", "manager", "analyst", "architect",
	"consultant", "specialist", "lead", "intern", "administrator", "designer",
	"tester", "qa", "devops", "sre", "product manager", "project manager",
	"data engineer", "data scientist", "ml engineer", "ai engineer",
	"accountant", "marketer", "marketing", "cybersecurity", "security",
}

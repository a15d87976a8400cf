package questions

import "strings"

// Category is one of the fixed analytics topics.
type Category struct {
	Name string `json:"category"`
	Icon string `json:"icon"`
}

var (
	Salary         = Category{"Salary/Pay", "💰"}
	Experience     = Category{"Day-to-Day/Experience", "🚔"}
	Locations      = Category{"Locations/Troop Assignments", "📍"}
	Qualifications = Category{"Qualifications/Requirements", "📋"}
	Fitness        = Category{"Fitness Test", "💪"}
	HiringProcess  = Category{"Hiring Process", "📝"}
	Background     = Category{"Background Check", "🔍"}
	Benefits       = Category{"Benefits", "🏥"}
	Training       = Category{"Training/Academy", "🎓"}
	Contact        = Category{"Contact/Recruiter", "📞"}
	Other          = Category{"Other", "❓"}
)

type rule struct {
	category Category
	matches  func(q string) bool
}

// rules are evaluated in order and the first match wins; several keyword
// sets overlap, so the order is part of the behavior.
var rules = []rule{
	{Salary, anyOf("salary", " pay", "paid", "money", " earn", "compensation", "wage", "income", "how much do troopers make",
		"how much does a trooper make", "make a year", "make per year", " raise")},
	{Experience, anyOf("day to day", "day-to-day", "typical day", "daily", "shift", "work schedule", "hours a week",
		"what is it like", "what's it like", "like to be a", "life as", "experience", "duties", "responsibilit")},
	{Locations, func(q string) bool {
		if strings.Contains(q, "troop") && !strings.Contains(q, "trooper") {
			return true
		}
		return anyOf("location", "where can i work", "where will i work", "where would i work", "where will i be",
			"stationed", " station", "assignment", "assigned", "headquarters", "county", "counties", "relocat")(q)
	}},
	{Qualifications, anyOf("qualif", "requirement", "require", "eligib", "age limit", "how old", "minimum age",
		"maximum age", "degree", "college", "credit hours", "education", "citizen", "driver's license", "drivers license",
		" vision", "eyesight", "tattoo")},
	{Fitness, anyOf("fitness", "physical", "pt test", "push-up", "pushup", "push up", "sit-up", "situp", "sit up",
		"mile run", "running", "workout", "in shape", "cardio")},
	{HiringProcess, anyOf("apply", "application", "hiring", " hire", "interview", "next step", "process", "written test",
		"written exam", "oral board", "how long does it take to get", "selection")},
	{Background, anyOf("background", "polygraph", "criminal", "arrest", "record", "drug", "marijuana", "credit",
		"felony", "misdemeanor", " dui", " dwi", "convict")},
	{Benefits, anyOf("benefit", "insurance", "health", "medical", "dental", "retire", "pension", "vacation", " leave",
		"holiday", "sick day", "401", "deferred comp", "tuition")},
	{Training, anyOf("training", "academy", " train", "recruit class", "weeks long", "boot camp", "field training",
		"graduat")},
	{Contact, anyOf("contact", "recruiter", "talk to", "speak to", "speak with", "phone", "email", " call", " reach",
		"ride along", "ride-along", "get in touch")},
}

// Categorize maps a question to its topic, falling back to Other.
func Categorize(question string) Category {
	// The leading space lets phrases like " earn" match only at word starts.
	q := " " + strings.ToLower(question)
	for _, r := range rules {
		if r.matches(q) {
			return r.category
		}
	}
	return Other
}

// Categories lists every category in rule order, Other last.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, Other)
}

// IconFor returns the icon of a category name, or the Other icon.
func IconFor(name string) string {
	for _, c := range Categories() {
		if c.Name == name {
			return c.Icon
		}
	}
	return Other.Icon
}

func anyOf(phrases ...string) func(string) bool {
	return func(q string) bool {
		for _, p := range phrases {
			if strings.Contains(q, p) {
				return true
			}
		}
		return false
	}
}

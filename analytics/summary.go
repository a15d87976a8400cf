package analytics

import (
	"sort"
	"time"

	"recruit-assistant/cache"
	"recruit-assistant/questions"
)

// DefaultTopQuestions is how many ranked questions a summary carries.
const DefaultTopQuestions = 20

type QuestionStat struct {
	Question  string    `json:"question"`
	Category  string    `json:"category"`
	Icon      string    `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Count    int    `json:"count"`
}

type RankedQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary is the read-time aggregation of an event log.
type Summary struct {
	TotalQuestions   int              `json:"totalQuestions"`
	UniqueQuestions  int              `json:"uniqueQuestions"`
	MostPopularCount int              `json:"mostPopularCount"`
	Questions        []QuestionStat   `json:"questions"`
	Categories       []CategoryStat   `json:"categories"`
	TopQuestions     []RankedQuestion `json:"topQuestions"`
}

// Summarize derives totals, per-question frequencies, a per-category
// breakdown and a frequency ranking from raw events. Questions are grouped by
// their normalized text; the listing is newest first.
func Summarize(events []Event, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopQuestions
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	counts := make(map[string]int)
	order := make([]string, 0)
	latest := make(map[string]Event)
	for _, e := range sorted {
		key := cache.Normalize(e.Question)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			latest[key] = e
		}
		counts[key]++
	}

	summary := Summary{
		TotalQuestions:  len(sorted),
		UniqueQuestions: len(counts),
		Questions:       make([]QuestionStat, 0, len(sorted)),
		Categories:      []CategoryStat{},
		TopQuestions:    []RankedQuestion{},
	}

	perCategory := make(map[string]int)
	for _, e := range sorted {
		category, icon := e.Category, e.Icon
		if category == "" {
			category = questions.Other.Name
		}
		if icon == "" {
			icon = questions.IconFor(category)
		}
		perCategory[category]++
		summary.Questions = append(summary.Questions, QuestionStat{
			Question:  e.Question,
			Category:  category,
			Icon:      icon,
			Timestamp: e.Timestamp,
			Count:     counts[cache.Normalize(e.Question)],
		})
	}

	// Known categories first in rule order, then anything unrecognized.
	known := make(map[string]bool)
	for _, c := range questions.Categories() {
		known[c.Name] = true
		if n := perCategory[c.Name]; n > 0 {
			summary.Categories = append(summary.Categories, CategoryStat{Category: c.Name, Icon: c.Icon, Count: n})
		}
	}
	var unknown []string
	for name := range perCategory {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		summary.Categories = append(summary.Categories, CategoryStat{Category: name, Icon: questions.Other.Icon, Count: perCategory[name]})
	}
	sort.SliceStable(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Count > summary.Categories[j].Count
	})

	// Ties keep the most recently asked question first.
	for _, key := range order {
		e := latest[key]
		summary.TopQuestions = append(summary.TopQuestions, RankedQuestion{
			Question: e.Question,
			Category: e.Category,
			Count:    counts[key],
		})
	}
	sort.SliceStable(summary.TopQuestions, func(i, j int) bool {
		return summary.TopQuestions[i].Count > summary.TopQuestions[j].Count
	})
	if len(summary.TopQuestions) > topN {
		summary.TopQuestions = summary.TopQuestions[:topN]
	}
	if len(summary.TopQuestions) > 0 {
		summary.MostPopularCount = summary.TopQuestions[0].Count
	}

	return summary
}

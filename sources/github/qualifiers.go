package github

import "time"

const dateLayout = "2006-01-02"

// Qualifier adds one clause to a search query. now is the evaluation time so
// relative qualifiers stay testable.
type Qualifier interface {
	Clause(now time.Time) string
}

type qualifierFunc func(now time.Time) string

func (f qualifierFunc) Clause(now time.Time) string {
	return f(now)
}

// CreatedLessThan matches items created within the last days days.
func CreatedLessThan(days int) Qualifier {
	return qualifierFunc(func(now time.Time) string {
		return "created:>" + now.AddDate(0, 0, -days).Format(dateLayout)
	})
}

// CreatedMoreThan matches items created more than days days ago.
func CreatedMoreThan(days int) Qualifier {
	return qualifierFunc(func(now time.Time) string {
		return "created:<" + now.AddDate(0, 0, -days).Format(dateLayout)
	})
}

// Raw adds a literal clause such as "label:bug".
func Raw(clause string) Qualifier {
	return qualifierFunc(func(time.Time) string {
		return clause
	})
}

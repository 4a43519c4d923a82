package matching

// Weights for the request parts of an HTTP scenario. More specific parts
// weigh more.
const (
	// ScorePathExact is the score for a path match.
	ScorePathExact = 15

	// ScoreMethod is the score for a method match.
	ScoreMethod = 10

	// ScoreHeader is the score for a header match.
	ScoreHeader = 10

	// ScoreQueryParam is the score for a query parameter match.
	ScoreQueryParam = 5

	// ScoreBodyEquals is the score for a body match.
	ScoreBodyEquals = 25

	// ScoreFacts is the score for matching server state.
	ScoreFacts = 5
)

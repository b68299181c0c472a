package ledger

// Edit holds the corrected result of a committed match. Mode, id,
// timestamp, submitter and friendliness are kept from the original.
type Edit struct {
	Winners     []string
	Losers      []string
	ScoreWinner int
	ScoreLoser  int
}

const (
	sideWinner = "winner"
	sideLoser  = "loser"
)

// DefaultMatchLimit caps ListMatches when no limit is given.
const DefaultMatchLimit = 50

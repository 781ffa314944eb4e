package evaluation

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errNoJSON   = errors.New("no json object with a score")
	errNoToken  = errors.New("no scoreChange token")
	errNoPhrase = errors.New("no evaluative phrase")
)

// parseTier is one step of the reply parser. Each returns a result or an
// error saying why it did not apply; the caller moves on to the next tier.
type parseTier struct {
	name  string
	parse func(reply string) (ScoreDelta, error)
}

var parseChain = []parseTier{
	{name: "json", parse: parseJSONObject},
	{name: "token", parse: parseScoreToken},
	{name: "phrase", parse: parsePhrase},
}

type modelVerdict struct {
	ScoreChange      *float64 `json:"scoreChange"`
	ScoreChangeSnake *float64 `json:"score_change"`
	Explanation      string   `json:"explanation"`
}

func parseJSONObject(reply string) (ScoreDelta, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return ScoreDelta{}, errNoJSON
	}
	var v modelVerdict
	if err := json.Unmarshal([]byte(reply[start:end+1]), &v); err != nil {
		return ScoreDelta{}, errNoJSON
	}
	score := v.ScoreChange
	if score == nil {
		score = v.ScoreChangeSnake
	}
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return ScoreDelta{}, errNoJSON
	}
	explanation := strings.TrimSpace(v.Explanation)
	if explanation == "" {
		explanation = "Scored by the model evaluator."
	}
	bounded := math.Max(MinScore, math.Min(MaxScore, math.Round(*score)))
	return ScoreDelta{ScoreChange: int(bounded), Explanation: explanation}, nil
}

var scoreTokenRE = regexp.MustCompile(`(?i)"?score_?change"?\s*[:=]\s*([+-]?\d+)`)

func parseScoreToken(reply string) (ScoreDelta, error) {
	m := scoreTokenRE.FindStringSubmatch(reply)
	if m == nil {
		return ScoreDelta{}, errNoToken
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return ScoreDelta{}, errNoToken
		}
		// ParseInt saturates to the int64 bound matching the sign.
	}
	return ScoreDelta{ScoreChange: clamp64(n), Explanation: "Score extracted from the model's reply."}, nil
}

// Most specific phrases first so "somewhat empathetic" is not read as
// "empathetic".
var evaluativePhrases = []struct {
	phrase string
	score  int
}{
	{"highly empathetic", 15},
	{"very empathetic", 15},
	{"somewhat empathetic", 5},
	{"very dismissive", -15},
	{"somewhat dismissive", -5},
	{"empathetic", 10},
	{"dismissive", -10},
	{"neutral", 0},
}

var negators = map[string]struct{}{
	"not": {}, "isn't": {}, "wasn't": {}, "never": {}, "hardly": {}, "no": {}, "nor": {},
}

func parsePhrase(reply string) (ScoreDelta, error) {
	lower := strings.ReplaceAll(strings.ToLower(reply), "’", "'")
	for _, p := range evaluativePhrases {
		if containsAffirmed(lower, p.phrase) {
			return ScoreDelta{ScoreChange: p.score, Explanation: "Model described the response as " + p.phrase + "."}, nil
		}
	}
	return ScoreDelta{}, errNoPhrase
}

// containsAffirmed reports whether phrase occurs in text without a negator
// among the two words before it.
func containsAffirmed(text, phrase string) bool {
	for offset := 0; ; {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		at := offset + i
		if !negated(text[:at]) {
			return true
		}
		offset = at + len(phrase)
	}
}

func negated(prefix string) bool {
	words := strings.Fields(prefix)
	for k := len(words) - 1; k >= 0 && k >= len(words)-2; k-- {
		if _, ok := negators[strings.Trim(words[k], ",;:.!?\"'()")]; ok {
			return true
		}
	}
	return false
}

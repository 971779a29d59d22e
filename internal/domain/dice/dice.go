package dice

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

const (
	MaxDice  = 1000
	MaxSides = 10000
	MaxTerms = 32
)

// FormulaError reports a dice formula that cannot be evaluated.
type FormulaError struct {
	Formula string
	Reason  string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("invalid roll formula %q: %s", e.Formula, e.Reason)
}

// Term is either a dice group (Count dice with Sides faces) or a constant. Sign is +1 or -1.
type Term struct {
	Sign     int
	Count    int
	Sides    int
	Constant int
}

func (t Term) isDice() bool {
	return t.Sides > 0
}

type Expression struct {
	Formula string
	Terms   []Term
}

// Parse reads NdM+K style formulas: dice groups ("2d6", "d20"), integer constants and
// "+"/"-" between them. Spaces are allowed around operators but not inside a term.
func Parse(formula string) (Expression, error) {
	src := strings.ToLower(formula)

	fail := func(format string, args ...any) (Expression, error) {
		return Expression{}, &FormulaError{Formula: formula, Reason: fmt.Sprintf(format, args...)}
	}

	pos := skipSpace(src, 0)
	if pos == len(src) {
		return fail("empty formula")
	}

	expr := Expression{Formula: formula}
	for pos < len(src) {
		sign := 1
		switch src[pos] {
		case '+':
			pos++
		case '-':
			sign = -1
			pos++
		default:
			if len(expr.Terms) > 0 {
				return fail("expected + or - at position %d", pos+1)
			}
		}
		pos = skipSpace(src, pos)
		if pos >= len(src) {
			return fail("formula ends with an operator")
		}

		left, next := readNumber(src, pos)
		pos = next

		if pos < len(src) && src[pos] == 'd' {
			pos++
			right, next := readNumber(src, pos)
			if right == "" {
				return fail("missing die size at position %d", pos+1)
			}
			pos = next

			count := 1
			if left != "" {
				n, err := strconv.Atoi(left)
				if err != nil || n < 1 || n > MaxDice {
					return fail("dice count must be between 1 and %d", MaxDice)
				}
				count = n
			}
			sides, err := strconv.Atoi(right)
			if err != nil || sides < 1 || sides > MaxSides {
				return fail("die size must be between 1 and %d", MaxSides)
			}
			expr.Terms = append(expr.Terms, Term{Sign: sign, Count: count, Sides: sides})
		} else {
			if left == "" {
				return fail("unexpected %q at position %d", src[pos], pos+1)
			}
			k, err := strconv.Atoi(left)
			if err != nil {
				return fail("constant %s out of range", left)
			}
			expr.Terms = append(expr.Terms, Term{Sign: sign, Constant: k})
		}

		if len(expr.Terms) > MaxTerms {
			return fail("more than %d terms", MaxTerms)
		}
		pos = skipSpace(src, pos)
	}
	return expr, nil
}

func skipSpace(src string, pos int) int {
	for pos < len(src) && unicode.IsSpace(rune(src[pos])) {
		pos++
	}
	return pos
}

func readNumber(src string, pos int) (string, int) {
	start := pos
	for pos < len(src) && src[pos] >= '0' && src[pos] <= '9' {
		pos++
	}
	return src[start:pos], pos
}

func (e Expression) Min() int {
	total := 0
	for _, t := range e.Terms {
		switch {
		case t.isDice() && t.Sign > 0:
			total += t.Count
		case t.isDice():
			total -= t.Count * t.Sides
		default:
			total += t.Sign * t.Constant
		}
	}
	return total
}

func (e Expression) Max() int {
	total := 0
	for _, t := range e.Terms {
		switch {
		case t.isDice() && t.Sign > 0:
			total += t.Count * t.Sides
		case t.isDice():
			total -= t.Count
		default:
			total += t.Sign * t.Constant
		}
	}
	return total
}

// Roll evaluates the expression once. The total may be negative.
func (e Expression) Roll(rng *rand.Rand) int {
	total := 0
	for _, t := range e.Terms {
		if !t.isDice() {
			total += t.Sign * t.Constant
			continue
		}
		sum := 0
		for i := 0; i < t.Count; i++ {
			sum += rng.Intn(t.Sides) + 1
		}
		total += t.Sign * sum
	}
	return total
}

func (e Expression) String() string {
	var b strings.Builder
	for i, t := range e.Terms {
		if t.Sign < 0 {
			b.WriteByte('-')
		} else if i > 0 {
			b.WriteByte('+')
		}
		if t.isDice() {
			fmt.Fprintf(&b, "%dd%d", t.Count, t.Sides)
		} else {
			b.WriteString(strconv.Itoa(t.Constant))
		}
	}
	return b.String()
}

// Roller evaluates formulas against its own random source.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller builds a roller. A nil rng is seeded from the clock.
func NewRoller(rng *rand.Rand) *Roller {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Roller{rng: rng}
}

// Evaluate rolls the formula and returns a non-negative total.
func (r *Roller) Evaluate(ctx context.Context, formula string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	expr, err := Parse(formula)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	total := expr.Roll(r.rng)
	r.mu.Unlock()

	if total < 0 {
		return 0, nil
	}
	return total, nil
}

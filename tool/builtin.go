package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/aetharaai/lotus/core"
)

// Calculator returns a computation tool evaluating basic arithmetic
// expressions (+, -, *, /, parentheses).
func Calculator() Tool {
	return Tool{
		Name:        "calculator",
		Description: "Evaluate a basic arithmetic expression, e.g. \"2+2\" or \"(3.5*4)/2\".",
		Category:    CategoryComputation,
		Params: map[string]ParamSpec{
			"expr": {Type: TypeString, Required: true},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			expr, _ := args["expr"].(string)
			v, err := evalExpr(expr)
			if err != nil {
				return nil, err
			}
			// Render integral results without a trailing ".0000".
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10), nil
			}
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		},
	}
}

// Clock returns an information tool reporting the current time.
func Clock() Tool {
	return Tool{
		Name:        "current_time",
		Description: "Report the current date and time in RFC 3339 form.",
		Category:    CategoryInformation,
		Params:      map[string]ParamSpec{},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return time.Now().Format(time.RFC3339), nil
		},
	}
}

// MemorySearch returns a memory tool exposing long-term recall to the model.
func MemorySearch(store core.MemoryStore) Tool {
	return Tool{
		Name:        "memory_search",
		Description: "Search long-term memory for records relevant to a query.",
		Category:    CategoryMemory,
		Params: map[string]ParamSpec{
			"query": {Type: TypeString, Required: true},
			"limit": {Type: TypeInt, Required: false, Default: 5},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			limit, _ := args["limit"].(int)
			if limit <= 0 {
				limit = 5
			}
			items, err := store.Recall(ctx, query, limit)
			if err != nil {
				return nil, err
			}
			data, err := json.Marshal(items)
			if err != nil {
				return nil, err
			}
			return string(data), nil
		},
	}
}

// MemoryWrite returns a memory tool letting the model persist a note.
func MemoryWrite(store core.MemoryStore) Tool {
	return Tool{
		Name:        "remember",
		Description: "Persist a note to long-term memory for future sessions.",
		Category:    CategoryMemory,
		Params: map[string]ParamSpec{
			"content":    {Type: TypeString, Required: true},
			"importance": {Type: TypeFloat, Required: false, Default: 0.5},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			content, _ := args["content"].(string)
			importance, _ := args["importance"].(float64)
			err := store.Remember(ctx, core.MemoryItem{
				Content:    content,
				Type:       core.MemoryEpisodic,
				Importance: importance,
			})
			if err != nil {
				return nil, err
			}
			return "remembered", nil
		},
	}
}

// evalExpr evaluates an infix arithmetic expression with the usual
// precedence rules.
func evalExpr(expr string) (float64, error) {
	p := &exprParser{input: strings.TrimSpace(expr)}
	if p.input == "" {
		return 0, fmt.Errorf("empty expression")
	}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseSum() (float64, error) {
	v, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	p.skipSpace()
	switch {
	case p.peek() == '(':
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case p.peek() == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil
	default:
		start := p.pos
		for p.pos < len(p.input) && (unicode.IsDigit(rune(p.input[p.pos])) || p.input[p.pos] == '.') {
			p.pos++
		}
		if start == p.pos {
			return 0, fmt.Errorf("expected number at position %d", start)
		}
		v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
		}
		return v, nil
	}
}

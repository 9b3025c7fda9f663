package astbuild

import (
	"fmt"

	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// parseType reads the short type notation a fixture spells declared types
// in: a primitive or struct name, optionally parameterized with
// "[...]", suffixed with "+" for a non-empty array, and "?" for optional —
// e.g. "Int", "Array[String]+", "Map[String,Int]?", "Person?". This is not
// WDL's own type syntax, just this package's compact stand-in for it.
func parseType(s string) (types.Type, error) {
	p := &typeParser{s: s}
	t, err := p.parseOne()
	if err != nil {
		return types.Type{}, err
	}
	p.skipSpace()
	if p.i != len(p.s) {
		return types.Type{}, fmt.Errorf("unexpected trailing text in type %q", s)
	}
	return t, nil
}

type typeParser struct {
	s string
	i int
}

func (p *typeParser) skipSpace() {
	for p.i < len(p.s) && p.s[p.i] == ' ' {
		p.i++
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *typeParser) parseOne() (types.Type, error) {
	p.skipSpace()
	start := p.i
	for p.i < len(p.s) && isIdentChar(p.s[p.i]) {
		p.i++
	}
	name := p.s[start:p.i]
	if name == "" {
		return types.Type{}, fmt.Errorf("expected a type name at position %d in %q", start, p.s)
	}

	var t types.Type
	switch name {
	case "Any":
		t = types.Any(false)
	case "Boolean":
		t = types.Boolean(false)
	case "Int":
		t = types.Int(false)
	case "Float":
		t = types.Float(false)
	case "String":
		t = types.String(false)
	case "File":
		t = types.File(false)
	case "Directory":
		t = types.Directory(false)
	case "Object":
		t = types.NewObject(nil, nil, false)
	case "Array":
		item, err := p.parseBracketedOne()
		if err != nil {
			return types.Type{}, err
		}
		t = types.NewArray(item, false, p.consumePlus())
	case "Map":
		kv, err := p.parseBracketedTwo()
		if err != nil {
			return types.Type{}, err
		}
		t = types.NewMap(kv[0], kv[1], false)
	case "Pair":
		lr, err := p.parseBracketedTwo()
		if err != nil {
			return types.Type{}, err
		}
		t = types.NewPair(lr[0], lr[1], false)
	default:
		t = types.NewStruct(name, false)
	}

	if p.consumeOptional() {
		t = t.WithOptional(true)
	}
	return t, nil
}

func (p *typeParser) parseBracketedOne() (types.Type, error) {
	p.skipSpace()
	if p.i >= len(p.s) || p.s[p.i] != '[' {
		return types.Type{}, fmt.Errorf("expected '[' in %q", p.s)
	}
	p.i++
	t, err := p.parseOne()
	if err != nil {
		return types.Type{}, err
	}
	p.skipSpace()
	if p.i >= len(p.s) || p.s[p.i] != ']' {
		return types.Type{}, fmt.Errorf("expected ']' in %q", p.s)
	}
	p.i++
	return t, nil
}

func (p *typeParser) parseBracketedTwo() ([2]types.Type, error) {
	p.skipSpace()
	if p.i >= len(p.s) || p.s[p.i] != '[' {
		return [2]types.Type{}, fmt.Errorf("expected '[' in %q", p.s)
	}
	p.i++
	a, err := p.parseOne()
	if err != nil {
		return [2]types.Type{}, err
	}
	p.skipSpace()
	if p.i >= len(p.s) || p.s[p.i] != ',' {
		return [2]types.Type{}, fmt.Errorf("expected ',' in %q", p.s)
	}
	p.i++
	b, err := p.parseOne()
	if err != nil {
		return [2]types.Type{}, err
	}
	p.skipSpace()
	if p.i >= len(p.s) || p.s[p.i] != ']' {
		return [2]types.Type{}, fmt.Errorf("expected ']' in %q", p.s)
	}
	p.i++
	return [2]types.Type{a, b}, nil
}

func (p *typeParser) consumePlus() bool {
	p.skipSpace()
	if p.i < len(p.s) && p.s[p.i] == '+' {
		p.i++
		return true
	}
	return false
}

func (p *typeParser) consumeOptional() bool {
	p.skipSpace()
	if p.i < len(p.s) && p.s[p.i] == '?' {
		p.i++
		return true
	}
	return false
}

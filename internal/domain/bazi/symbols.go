// Package bazi derives sexagenary (BaZi) charts and their five-element
// balance from a Gregorian birth date and hour.
//
// All tables in this package are immutable and safe for concurrent use.
package bazi

import (
	"fmt"
	"strings"
)

// Table sizes of the sexagenary cycle.
const (
	stemCount    = 10
	branchCount  = 12
	elementCount = 5
)

// Element is one of the five phases (Wuxing).
type Element int

// Elements in canonical order. Tie-breaking everywhere follows this order.
const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

var elementNames = [elementCount]string{"wood", "fire", "earth", "metal", "water"}

var elementHanzi = [elementCount]string{"木", "火", "土", "金", "水"}

var elementColors = [elementCount]string{"#22c55e", "#ef4444", "#f59e0b", "#94a3b8", "#3b82f6"}

// generates[e] is the element e produces.
var generates = [elementCount]Element{Fire, Earth, Metal, Water, Wood}

// dominates[e] is the element e controls.
var dominates = [elementCount]Element{Earth, Metal, Water, Wood, Fire}

// Elements returns the five elements in canonical order.
func Elements() []Element {
	return []Element{Wood, Fire, Earth, Metal, Water}
}

// Valid reports whether e is one of the five elements.
func (e Element) Valid() bool { return e >= Wood && e <= Water }

// String returns the lowercase English name, e.g. "wood".
func (e Element) String() string {
	if !e.Valid() {
		return fmt.Sprintf("element(%d)", int(e))
	}
	return elementNames[e]
}

// Hanzi returns the Chinese character for the element.
func (e Element) Hanzi() string {
	if !e.Valid() {
		return ""
	}
	return elementHanzi[e]
}

// Color returns the display color associated with the element.
func (e Element) Color() string {
	if !e.Valid() {
		return ""
	}
	return elementColors[e]
}

// Generates returns the element e produces in the generation cycle.
func (e Element) Generates() Element { return generates[e] }

// Dominates returns the element e controls in the domination cycle.
func (e Element) Dominates() Element { return dominates[e] }

// MarshalText encodes the element by its English name.
func (e Element) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownElement, int(e))
	}
	return []byte(elementNames[e]), nil
}

// UnmarshalText accepts anything ParseElement does.
func (e *Element) UnmarshalText(b []byte) error {
	parsed, err := ParseElement(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseElement resolves an element from its English name (any case) or its
// Chinese character.
func ParseElement(s string) (Element, error) {
	s = strings.TrimSpace(s)
	for i := range elementNames {
		if strings.EqualFold(s, elementNames[i]) || s == elementHanzi[i] {
			return Element(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownElement, s)
}

// YinYang is the polarity of a stem or branch.
type YinYang int

// Polarities.
const (
	Yang YinYang = iota
	Yin
)

// String returns "yang" or "yin".
func (p YinYang) String() string {
	if p == Yin {
		return "yin"
	}
	return "yang"
}

// Hanzi returns 阳 or 阴.
func (p YinYang) Hanzi() string {
	if p == Yin {
		return "阴"
	}
	return "阳"
}

// Stem is a heavenly stem (天干), ordinal 0..9.
type Stem int

var stemHanzi = [stemCount]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}

var stemPinyin = [stemCount]string{"jia", "yi", "bing", "ding", "wu", "ji", "geng", "xin", "ren", "gui"}

var stemElements = [stemCount]Element{Wood, Wood, Fire, Fire, Earth, Earth, Metal, Metal, Water, Water}

// Index returns the ordinal of the stem.
func (s Stem) Index() int { return int(s) }

// String returns the Chinese character of the stem.
func (s Stem) String() string { return stemHanzi[s] }

// Pinyin returns the romanized name of the stem.
func (s Stem) Pinyin() string { return stemPinyin[s] }

// Element returns the stem's element.
func (s Stem) Element() Element { return stemElements[s] }

// YinYang returns the stem's polarity; even ordinals are yang.
func (s Stem) YinYang() YinYang { return YinYang(int(s) % 2) }

// Branch is an earthly branch (地支), ordinal 0..11.
type Branch int

var branchHanzi = [branchCount]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

var branchPinyin = [branchCount]string{"zi", "chou", "yin", "mao", "chen", "si", "wu", "wei", "shen", "you", "xu", "hai"}

var branchElements = [branchCount]Element{
	Water, Earth, Wood, Wood, Earth, Fire, Fire, Earth, Metal, Metal, Earth, Water,
}

// Index returns the ordinal of the branch.
func (b Branch) Index() int { return int(b) }

// String returns the Chinese character of the branch.
func (b Branch) String() string { return branchHanzi[b] }

// Pinyin returns the romanized name of the branch.
func (b Branch) Pinyin() string { return branchPinyin[b] }

// Element returns the branch's element.
func (b Branch) Element() Element { return branchElements[b] }

// YinYang returns the branch's polarity; even ordinals are yang.
func (b Branch) YinYang() YinYang { return YinYang(int(b) % 2) }

// Zodiac returns the animal tied to the branch.
func (b Branch) Zodiac() Zodiac { return Zodiac(b) }

// Zodiac is one of the twelve animals, sharing ordinals with Branch.
type Zodiac int

var zodiacHanzi = [branchCount]string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}

var zodiacNames = [branchCount]string{
	"rat", "ox", "tiger", "rabbit", "dragon", "snake", "horse", "goat", "monkey", "rooster", "dog", "pig",
}

// String returns the Chinese character of the animal.
func (z Zodiac) String() string { return zodiacHanzi[z] }

// English returns the English animal name.
func (z Zodiac) English() string { return zodiacNames[z] }

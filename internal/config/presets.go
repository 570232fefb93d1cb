package config

import "sort"

// Presets holds example inputs per family, each leaving exactly one
// variable out.
var Presets = map[string]map[string]map[string]float64{
	"tmv": {
		"discount": {"fv": 1000, "r": 0.02, "n": 10},
		"compound": {"pv": 1000, "r": 0.02, "n": 10},
		"rate":     {"pv": 1000, "fv": 1218.9944, "n": 10},
		"horizon":  {"pv": 1000, "fv": 1218.9944, "r": 0.02},
	},
	"perpetuity": {
		"value":   {"C": 1000, "r": 0.02},
		"payment": {"pv": 50000, "r": 0.02},
		"rate":    {"pv": 50000, "C": 1000},
	},
	"annuity_pv": {
		"value":   {"C": 1000, "r": 0.02, "n": 10},
		"payment": {"pv": 8982.585, "r": 0.02, "n": 10},
		"rate":    {"pv": 8982.585, "C": 1000, "n": 10},
		"term":    {"pv": 8982.585, "C": 1000, "r": 0.02},
	},
	"annuity_fv": {
		"savings": {"C": 1000, "r": 0.02, "n": 10},
		"target":  {"fv": 10949.721, "r": 0.02, "n": 10},
	},
	"annuity": {
		"future":  {"C": 1000, "r": 0.02, "n": 10},
		"payment": {"pv": 8982.585, "r": 0.02, "n": 10},
	},
	"ytm": {
		"yield":  {"fv": 1000, "cpn": 25, "p": 957.349, "n": 10},
		"price":  {"ytm": 0.03, "fv": 1000, "cpn": 25, "n": 10},
		"coupon": {"ytm": 0.03, "fv": 1000, "p": 957.349, "n": 10},
		"face":   {"ytm": 0.03, "cpn": 25, "p": 957.349, "n": 10},
	},
	"ear": {
		"monthly": {"apr": 0.12, "m": 12},
		"daily":   {"apr": 0.12, "m": 365},
		"nominal": {"ear": 0.126825, "m": 12},
	},
	"stock_price": {
		"price":  {"div1": 2, "p1": 50, "re": 0.1},
		"return": {"p0": 50, "div1": 5, "p1": 50},
	},
}

func GetPreset(family, preset string) map[string]float64 {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	values, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	return values
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	return sortStrings(names)
}

func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}

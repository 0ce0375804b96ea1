package config

import "math/rand"

// Consulter display names. One is drawn at random per run so repeated
// videos on the same channel do not reuse the same persona.
var consulterNamesMale = []string{
	"正夫", "和夫", "勝", "博", "清", "茂", "弘", "隆", "誠", "浩",
	"健一", "修", "豊", "進", "実", "明", "義男", "武", "正", "昭",
}

var consulterNamesFemale = []string{
	"幸子", "和子", "節子", "洋子", "恵子", "京子", "美智子", "昭子",
	"久子", "文子", "敏子", "悦子", "弘子", "良子", "信子", "千代子",
}

// PickConsulterName returns a random consulter name from both pools.
func PickConsulterName() string {
	all := make([]string, 0, len(consulterNamesMale)+len(consulterNamesFemale))
	all = append(all, consulterNamesMale...)
	all = append(all, consulterNamesFemale...)
	return all[rand.Intn(len(all))]
}

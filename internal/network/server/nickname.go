package server

import (
	"math/rand"
)

// 昵称词库
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "酷炫的",
		"优雅的", "沉稳的", "机智的", "潇洒的", "霸气的",
		"淡定的", "闪亮的", "迷人的", "高冷的", "坚毅的",
	}

	nouns = []string{
		"小兵", "骑士", "主教", "城堡", "皇后",
		"国王", "棋手", "大师", "新秀", "猎手",
	}
)

// GenerateNickname 生成随机昵称，用于未报名字的玩家
func GenerateNickname() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return adj + noun
}

package model

import "time"

// Developer は開発者プロフィールを表す。
// CreatedByIDは作成者の外部IDで、作成時に1回だけ設定される。
type Developer struct {
	ID          string
	Name        string
	Title       string
	Summary     string // サニタイズ済み
	Location    string
	Email       string
	CreatedByID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeveloperSkill は開発者が保有するスキルを表す。
// Developerは親の開発者で、リポジトリがJOINして読み込む。
type DeveloperSkill struct {
	ID                string
	DeveloperID       string
	Developer         *Developer
	Name              string
	Level             int // 1-5
	YearsOfExperience int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Experience は職歴を表す。
type Experience struct {
	ID          string
	DeveloperID string
	Developer   *Developer
	Company     string
	Position    string
	Description string // サニタイズ済み
	StartDate   time.Time
	EndDate     *time.Time // 在籍中はnil
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Project はプロジェクト実績を表す。
// 開発者とは直接紐付かず、関連するスキル経由で所有者が決まる。
type Project struct {
	ID          string
	Name        string
	Description string // サニタイズ済み
	URL         string
	Skills      []*DeveloperSkill
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SocialLink は開発者のSNSアカウントへのリンクを表す。
type SocialLink struct {
	ID          string
	DeveloperID string
	Developer   *Developer
	Platform    string // github, x, linkedin 等
	URL         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

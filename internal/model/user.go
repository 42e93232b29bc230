package model

import "time"

// User 登录后保存在本地的用户身份，Username 作为后端接口中的用户标识
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

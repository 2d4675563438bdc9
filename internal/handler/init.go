package handler

import (
	"circleup/backend/internal/service"
	"circleup/backend/internal/store"

	"gorm.io/gorm"
)

var (
	friendSvc  *service.FriendService
	groupSvc   *service.GroupService
	postSvc    *service.PostService
	messageSvc *service.MessageService
)

// Init wires the request handlers to their services over the shared DB.
// Must be called once after database.Connect, before routes are served.
func Init(db *gorm.DB) {
	users := store.NewUsers(db)
	friendSvc = &service.FriendService{Users: users, Friendships: store.NewFriendships(db)}
	groupSvc = &service.GroupService{Users: users, Groups: store.NewGroups(db)}
	postSvc = &service.PostService{Posts: store.NewPosts(db), Friends: friendSvc}
	messageSvc = &service.MessageService{Messages: store.NewMessages(db), Groups: groupSvc, Users: users}
}

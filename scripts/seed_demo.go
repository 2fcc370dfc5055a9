// 写入演示数据：用户、活动、参与评价和好友关系
//
// 数据来自 YAML 文件，活动时间以当前时间为基准的小时偏移表示，
// 便于随时生成"已结束/进行中/未开始"三类活动。
//
// 用法: go run scripts/seed_demo.go -data scripts/demo_data.yaml

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"social_events_backend/internal/config"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/service"
	"social_events_backend/pkg/database"
	"social_events_backend/pkg/logger"
	"time"

	"gopkg.in/yaml.v3"
)

type seedUser struct {
	Name     string `yaml:"name"`
	LastName string `yaml:"last_name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type seedEvent struct {
	Owner          string `yaml:"owner"`
	Name           string `yaml:"name"`
	Location       string `yaml:"location"`
	Description    string `yaml:"description"`
	Type           string `yaml:"type"`
	NParticipators int    `yaml:"n_participators"`
	StartInHours   int    `yaml:"start_in_hours"`
	DurationHours  int    `yaml:"duration_hours"`
}

type seedAssistance struct {
	User        string `yaml:"user"`
	Event       string `yaml:"event"`
	Punctuation *int   `yaml:"punctuation"`
	Comment     string `yaml:"comment"`
}

type seedFriendship struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Accept bool   `yaml:"accept"`
}

type seedData struct {
	Users       []seedUser       `yaml:"users"`
	Events      []seedEvent      `yaml:"events"`
	Assistances []seedAssistance `yaml:"assistances"`
	Friendships []seedFriendship `yaml:"friendships"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	dataFile := flag.String("data", "scripts/demo_data.yaml", "演示数据文件")
	flag.Parse()

	raw, err := os.ReadFile(*dataFile)
	if err != nil {
		log.Fatalf("无法读取演示数据: %v", err)
	}
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		log.Fatalf("解析演示数据失败: %v", err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	ctx := context.Background()
	now := time.Now()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(nil)
	users := service.NewUserService(userRepo, tokenRepo, cfg.Data.CascadeOnDelete)
	auth := service.NewAuthService(userRepo, tokenRepo, cfg)
	events := service.NewEventService(repository.NewEventRepository(db), users, cfg.Data.CascadeOnDelete)
	assistances := service.NewAssistanceService(repository.NewAssistanceRepository(db), events, users)
	friends := service.NewFriendshipService(repository.NewFriendshipRepository(db), users, cfg.Friendship.CascadeDeleteMessages)

	userIDs := make(map[string]uint)
	for _, u := range data.Users {
		user := &model.User{Name: u.Name, LastName: u.LastName, Email: u.Email, Password: u.Password}
		if err := auth.Register(ctx, user); err != nil {
			// 重复执行时复用已有用户
			existing, findErr := userRepo.FindByEmail(ctx, u.Email)
			if findErr != nil {
				log.Fatalf("创建用户 %s 失败: %v", u.Email, err)
			}
			user = existing
		}
		userIDs[u.Email] = user.ID
	}

	eventIDs := make(map[string]uint)
	for _, e := range data.Events {
		ownerID, ok := userIDs[e.Owner]
		if !ok {
			log.Fatalf("活动 %s 的组织者 %s 不存在", e.Name, e.Owner)
		}
		start := now.Add(time.Duration(e.StartInHours) * time.Hour)
		event := &model.Event{
			OwnerID:        ownerID,
			Name:           e.Name,
			Location:       e.Location,
			Description:    e.Description,
			Type:           e.Type,
			NParticipators: e.NParticipators,
			EventStartDate: start,
			EventEndDate:   start.Add(time.Duration(e.DurationHours) * time.Hour),
		}
		if err := events.CreateEvent(ctx, event); err != nil {
			log.Fatalf("创建活动 %s 失败: %v", e.Name, err)
		}
		eventIDs[e.Name] = event.ID
	}

	for _, a := range data.Assistances {
		userID, eventID := userIDs[a.User], eventIDs[a.Event]
		if _, err := assistances.CreateAssistance(ctx, userID, eventID); err != nil {
			log.Fatalf("%s 参加 %s 失败: %v", a.User, a.Event, err)
		}
		if a.Punctuation == nil && a.Comment == "" {
			continue
		}
		rating := model.AssistanceRating{Punctuation: a.Punctuation}
		if a.Comment != "" {
			rating.Comment = &a.Comment
		}
		if _, err := assistances.RateAssistance(ctx, userID, eventID, rating, now); err != nil {
			log.Printf("跳过 %s 对 %s 的评价: %v", a.User, a.Event, err)
		}
	}

	for _, f := range data.Friendships {
		fromID, toID := userIDs[f.From], userIDs[f.To]
		outcome, err := friends.CreateFriendRequest(ctx, fromID, toID)
		if err != nil {
			log.Fatalf("好友申请 %s -> %s 失败: %v", f.From, f.To, err)
		}
		if f.Accept {
			outcome, err = friends.AcceptFriendRequest(ctx, toID, fromID)
			if err != nil {
				log.Fatalf("接受好友申请 %s -> %s 失败: %v", f.From, f.To, err)
			}
		}
		log.Printf("%s -> %s: %s", f.From, f.To, outcome.Outcome)
	}

	log.Printf("完成！用户 %d 个，活动 %d 个", len(userIDs), len(eventIDs))
}

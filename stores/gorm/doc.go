// Package gorm provides GORM-based implementations of the tasknest store
// interfaces, targeting PostgreSQL (the todo documents and search filter
// use jsonb columns). This is the backend intended for production
// deployments.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: accounts, credentials, Google linkage and reset-token state
//   - todos: user-owned tasks with embedded subtasks and attachments
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	userStore := gormstore.NewUserStore(db)
//	todoStore := gormstore.NewTodoStore(db)
package gorm

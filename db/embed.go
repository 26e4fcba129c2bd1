// Package db 内嵌数据库迁移脚本
package db

import "embed"

// Migrations 迁移脚本（migrations/*_up.sql）
//
//go:embed migrations/*.sql
var Migrations embed.FS

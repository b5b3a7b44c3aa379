package migrations

import "embed"

// FS 内嵌的 goose SQL 迁移文件
//
//go:embed *.sql
var FS embed.FS

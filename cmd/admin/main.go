package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/mail"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"careercraft/internal/auth"
	"careercraft/internal/config"
	"careercraft/internal/database"
)

func main() {
	var (
		username  = flag.String("username", "", "管理员用户名（必填）")
		email     = flag.String("email", "", "管理员邮箱（必填）")
		firstName = flag.String("first-name", "Platform", "名")
		lastName  = flag.String("last-name", "Admin", "姓")
		dbHost    = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort    = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName    = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser    = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass    = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode   = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}
	if strings.Contains(u, "@") {
		log.Fatal("--username must not contain @")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(*email))
	if err != nil {
		log.Fatalf("invalid --email: %v", err)
	}
	e := strings.ToLower(addr.Address)

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.Migrate(db, slog.Default()); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var existing database.Account
	switch err := db.Where("username = ? OR email = ?", u, e).First(&existing).Error; {
	case err == nil:
		log.Fatalf("account %q or %q already exists", u, e)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query account: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	account := database.Account{
		FirstName:          strings.TrimSpace(*firstName),
		LastName:           strings.TrimSpace(*lastName),
		Username:           u,
		Email:              e,
		PasswordHash:       hashed,
		Role:               database.RoleAdmin,
		MustChangePassword: true,
	}
	if err := db.Create(&account).Error; err != nil {
		log.Fatalf("create account: %v", err)
	}

	fmt.Printf("已创建管理员账号（首次登录需强制改密）：\n")
	fmt.Printf("用户名: %s\n", u)
	fmt.Printf("邮箱: %s\n", e)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：请立即登录并修改密码（该密码仅显示一次）。\n")
}

// loadDatabaseConfig 只解析数据库相关配置，管理工具不需要 MinIO、JWT 等其余配置。
func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	host = firstNonEmpty(host, os.Getenv("DATABASE_HOST"), "localhost")
	name = firstNonEmpty(name, os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME"))
	user = firstNonEmpty(user, os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER"))
	password = firstNonEmpty(password, os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD"))
	sslmode = firstNonEmpty(sslmode, os.Getenv("DATABASE_SSLMODE"), "disable")

	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if port <= 0 {
		port = 5432
	}

	if name == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if user == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if password == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 6
	// bcrypt 只使用前 72 字节
	maxPasswordBytes = 72

	maxNameLength     = 100
	maxBioLength      = 2000
	maxCollegeLength  = 200
	maxUsernameLength = 40

	maxSignUpAttempts = 5

	defaultBio     = "Passionate developer & lifelong learner"
	avatarTemplate = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"
)

// Profile 是账户对外展示的资料
type Profile struct {
	ID       string
	Username string
	Email    string
	Name     string
	Avatar   string
	Bio      string
	BioHTML  string
	College  string
	JoinedAt time.Time
}

// SignUpInput 定义注册字段
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate 只会修改非 nil 的字段
type ProfileUpdate struct {
	Name    *string
	Bio     *string
	Avatar  *string
	College *string
}

// AuthResult 为注册/登录的返回
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   Profile
}

// AccountService 负责账户注册、登录与资料维护
type AccountService struct {
	db     *gorm.DB
	tokens *TokenIssuer
	clock  clock.Clock
	log    *logger.Logger
}

// NewAccountService 构造 AccountService
func NewAccountService(gdb *gorm.DB, tokens *TokenIssuer, clk clock.Clock, log *logger.Logger) *AccountService {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AccountService{db: gdb, tokens: tokens, clock: clk, log: log}
}

// SignUp 创建账户并签发令牌；用户名由姓名推导，冲突时追加数字后缀
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	name := plainText(input.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, invalidf("name exceeds %d characters", maxNameLength)
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	var account db.Account
	for attempt := 1; ; attempt++ {
		account = db.Account{
			Email:          email,
			PasswordHash:   string(hashed),
			Name:           name,
			Bio:            defaultBio,
			JoinedAt:       now,
			LastActivityAt: &now,
		}
		err = s.createAccount(ctx, &account)
		if !errors.Is(err, errDuplicateAccount) {
			break
		}

		// 并发注册撞上唯一索引：邮箱已存在则报冲突，否则换下一个用户名重试
		taken, err := s.emailTaken(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		if attempt >= maxSignUpAttempts {
			return nil, ErrUsernameExhausted
		}
		s.log.Warn("username collision, retrying", "username", account.Username, "attempt", attempt)
	}
	if err != nil {
		return nil, txErr(err)
	}

	s.log.Info("account created", "account_id", account.ID, "username", account.Username)
	return s.issue(&account)
}

// createAccount 在单个事务中分配用户名并写入账户
func (s *AccountService) createAccount(ctx context.Context, account *db.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&db.Account{}).Where("email = ?", account.Email).Count(&taken).Error; err != nil {
			return storageErr("check email", err)
		}
		if taken > 0 {
			return ErrEmailTaken
		}

		username, err := uniqueUsername(tx, account.Name)
		if err != nil {
			return err
		}
		account.Username = username
		account.Avatar = fmt.Sprintf(avatarTemplate, url.QueryEscape(username))

		if err := tx.Create(account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateAccount
			}
			return storageErr("create account", err)
		}
		return nil
	})
}

func (s *AccountService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, storageErr("check email", err)
	}
	return count > 0, nil
}

// SignIn 校验邮箱与密码并签发令牌
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var account db.Account
	if err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&account).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("signin rejected", "account_id", account.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(&account)
}

// Authenticate 校验访问令牌并返回账户 ID
func (s *AccountService) Authenticate(token string) (string, error) {
	return s.tokens.Verify(token)
}

// Get 按 ID 查询资料
func (s *AccountService) Get(ctx context.Context, id string) (*Profile, error) {
	return s.findOne(ctx, "id = ?", strings.TrimSpace(id))
}

// GetByUsername 按用户名查询资料，不区分大小写
func (s *AccountService) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.findOne(ctx, "username = ?", strings.ToLower(strings.TrimSpace(username)))
}

// UpdateProfile 只更新请求中提供的字段，文本会去除 HTML 标记
func (s *AccountService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Profile, error) {
	changes := map[string]interface{}{}

	if update.Name != nil {
		name := plainText(*update.Name)
		if name == "" {
			return nil, invalidf("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, invalidf("name exceeds %d characters", maxNameLength)
		}
		changes["name"] = name
	}
	if update.Bio != nil {
		bio := plainText(*update.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, invalidf("bio exceeds %d characters", maxBioLength)
		}
		changes["bio"] = bio
	}
	if update.Avatar != nil {
		avatar := strings.TrimSpace(*update.Avatar)
		if avatar != "" && !isHTTPURL(avatar) {
			return nil, invalidf("avatar must be an http(s) url")
		}
		changes["avatar"] = avatar
	}
	if update.College != nil {
		college := plainText(*update.College)
		if utf8.RuneCountInString(college) > maxCollegeLength {
			return nil, invalidf("college exceeds %d characters", maxCollegeLength)
		}
		changes["college"] = college
	}

	var account db.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, "id = ?", id).Error; err != nil {
			return accountLookupErr(err)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&account).Updates(changes).Error; err != nil {
			return storageErr("update profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	if len(changes) > 0 {
		s.log.Info("profile updated", "account_id", account.ID, "fields", len(changes))
	}
	profile := profileOf(&account)
	return &profile, nil
}

// EnsureAccount 邮箱已存在时直接返回，否则按注册流程创建
func (s *AccountService) EnsureAccount(ctx context.Context, input SignUpInput) (*Profile, bool, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.findOne(ctx, "email = ?", email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}

	result, err := s.SignUp(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return &result.Profile, true, nil
}

func (s *AccountService) findOne(ctx context.Context, query string, arg string) (*Profile, error) {
	if arg == "" {
		return nil, ErrAccountNotFound
	}
	var account db.Account
	if err := s.db.WithContext(ctx).Where(query, arg).First(&account).Error; err != nil {
		return nil, accountLookupErr(err)
	}
	profile := profileOf(&account)
	return &profile, nil
}

func (s *AccountService) issue(account *db.Account) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Profile: profileOf(account)}, nil
}

func profileOf(account *db.Account) Profile {
	return Profile{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		Name:     account.Name,
		Avatar:   account.Avatar,
		Bio:      account.Bio,
		BioHTML:  RenderBio(account.Bio),
		College:  account.College,
		JoinedAt: account.JoinedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalidf("email is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", invalidf("email %q is not valid", trimmed)
	}
	return strings.ToLower(addr.Address), nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalidf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return invalidf("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// baseUsername 小写化并把连续空白替换为下划线，其余非字母数字字符被丢弃
func baseUsername(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r):
			pendingSep = true
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.':
		default:
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}

	base := b.String()
	if base == "" {
		base = "learner"
	}
	if utf8.RuneCountInString(base) > maxUsernameLength {
		base = string([]rune(base)[:maxUsernameLength])
	}
	return base
}

func uniqueUsername(tx *gorm.DB, name string) (string, error) {
	base := baseUsername(name)
	candidate := base
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Model(&db.Account{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", storageErr("check username", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, counter)
	}
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	pkgerrors "campus-attendance/pkg/errors"
)

type addUserOptions struct {
	name         string
	email        string
	password     string
	role         string
	departmentID string
}

func newAddUserCmd() *cobra.Command {
	opts := &addUserOptions{}
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "创建账号（默认 admin），用于首次部署",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAddUser(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "Administrator", "姓名")
	cmd.Flags().StringVar(&opts.email, "email", "", "登录邮箱")
	cmd.Flags().StringVar(&opts.password, "password", "", "初始密码，至少 8 位")
	cmd.Flags().StringVar(&opts.role, "role", string(model.RoleAdmin), "角色：admin / principal / hod / teacher / class_teacher / student")
	cmd.Flags().StringVar(&opts.departmentID, "department", "", "院系 ID（hod / teacher 等角色需要）")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// buildUser 校验参数并生成待写入的用户
func buildUser(opts *addUserOptions) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(opts.email))
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("邮箱格式无效: %q", opts.email)
	}
	if len(opts.password) < 8 {
		return nil, errors.New("密码长度不能少于 8 位")
	}
	role, ok := model.ParseRole(opts.role)
	if !ok || role == model.RolePending {
		return nil, fmt.Errorf("无效的角色: %q", opts.role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Name:               strings.TrimSpace(opts.name),
		Email:              email,
		PasswordHash:       string(hash),
		Role:               role,
		Status:             model.UserStatusActive,
		MustChangePassword: true,
	}
	if opts.departmentID != "" {
		dept := opts.departmentID
		user.DepartmentID = &dept
	}
	return user, nil
}

func runAddUser(ctx context.Context, opts *addUserOptions) error {
	user, err := buildUser(opts)
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	repo := repository.NewRepository(e.db)
	if _, err := repo.User.GetByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("邮箱已存在: %s", user.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询用户失败: %w", err)
	}

	if err := repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return fmt.Errorf("邮箱已存在: %s", user.Email)
		}
		return fmt.Errorf("创建用户失败: %w", err)
	}

	fmt.Printf("已创建用户 %s（%s），角色 %s，首次登录需修改密码\n", user.Email, user.UserID, user.Role)
	return nil
}

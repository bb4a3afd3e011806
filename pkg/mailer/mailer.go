package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"campus-attendance/config"
)

// ErrDisabled 邮件配置缺失
var ErrDisabled = errors.New("邮件服务未配置")

// Message 一封纯文本邮件
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer SMTP 发送器
type Mailer struct {
	cfg  config.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New 创建 Mailer；配置不完整时 Enabled 返回 false
func New(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// Enabled 是否可以发信
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled()
}

// Send 发送邮件
// net/smtp 不支持 context，这里仅在发送前检查取消
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if len(msg.To) == 0 {
		return errors.New("收件人为空")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := m.send(addr, auth, m.cfg.From, msg.To, m.build(msg)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (m *Mailer) build(msg Message) []byte {
	var buf bytes.Buffer
	buf.WriteString("From: " + m.cfg.From + "\r\n")
	buf.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	buf.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return buf.Bytes()
}

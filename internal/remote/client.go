// Package remote 课程/进度/证书后端的 REST 客户端，用户以 username 标识。
package remote

import (
	"context"
	"course_sync/internal/config"
	"course_sync/internal/model"
	"course_sync/internal/util"
	"course_sync/pkg/monitoring"
	"course_sync/pkg/tracing"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// StatusError 非预期的 HTTP 状态码
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return util.ErrRemote
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

func NewClient(cfg *config.BackendConfig) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.RetryCount).
			SetHeader("Content-Type", util.MimeJSON).
			SetHeader("Accept", util.MimeJSON),
	}

	if cfg.RequestsPerSec > 0 {
		burst := int(cfg.RequestsPerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
		c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.limiter.Wait(r.Context())
		})
	}

	return c
}

// do 发送请求并记录指标和 span，返回响应交由调用方判断状态码
func (c *Client) do(ctx context.Context, operation, method, path string, params map[string]string, body interface{}) (*resty.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "remote."+operation,
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)
	started := time.Now()

	req := c.http.R().SetContext(ctx).SetPathParams(params)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		monitoring.ObserveRemote(operation, 0, started)
		err = fmt.Errorf("%w: %s: %v", util.ErrRemote, operation, err)
		tracing.EndSpan(span, err)
		return nil, err
	}

	monitoring.ObserveRemote(operation, resp.StatusCode(), started)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	tracing.EndSpan(span, nil)
	return resp, nil
}

func statusErr(operation string, resp *resty.Response) error {
	return &StatusError{Operation: operation, StatusCode: resp.StatusCode(), Body: resp.String()}
}

func decode(operation string, resp *resty.Response, out interface{}) error {
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", util.ErrRemote, operation, err)
	}
	return nil
}

func (c *Client) ListCourses(ctx context.Context) ([]model.Course, error) {
	const op = "list_courses"
	resp, err := c.do(ctx, op, http.MethodGet, "/courses", nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusErr(op, resp)
	}
	var courses []model.Course
	if err := decode(op, resp, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	const op = "get_course"
	resp, err := c.do(ctx, op, http.MethodGet, "/courses/{courseId}", map[string]string{"courseId": courseID}, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", util.ErrCourseNotFound, courseID)
	}
	if !resp.IsSuccess() {
		return nil, statusErr(op, resp)
	}
	var course model.Course
	if err := decode(op, resp, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListCourseProgress 404 视为没有任何进度
func (c *Client) ListCourseProgress(ctx context.Context, userID string) ([]CourseProgress, error) {
	const op = "list_course_progress"
	resp, err := c.do(ctx, op, http.MethodGet, "/progress/{userId}/courses", map[string]string{"userId": userID}, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return []CourseProgress{}, nil
	}
	if !resp.IsSuccess() {
		return nil, statusErr(op, resp)
	}
	var list []CourseProgress
	if err := decode(op, resp, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetCourseProgress 404 返回 nil, nil，表示后端还没有该课程的进度
func (c *Client) GetCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, error) {
	const op = "get_course_progress"
	resp, err := c.do(ctx, op, http.MethodGet, "/progress/{userId}/courses/{courseId}",
		map[string]string{"userId": userID, "courseId": courseID}, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, statusErr(op, resp)
	}
	var progress CourseProgress
	if err := decode(op, resp, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (c *Client) SaveSectionProgress(ctx context.Context, userID, courseID, sectionID string, score, totalQuestions int) error {
	const op = "save_section_progress"
	resp, err := c.do(ctx, op, http.MethodPost, "/progress/{userId}/courses/{courseId}/sections/{sectionId}",
		map[string]string{"userId": userID, "courseId": courseID, "sectionId": sectionID},
		sectionProgressRequest{Score: score, TotalQuestions: totalQuestions})
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return statusErr(op, resp)
	}
	return nil
}

func (c *Client) MarkCourseCompleted(ctx context.Context, userID, courseID string) error {
	const op = "mark_course_completed"
	resp, err := c.do(ctx, op, http.MethodPut, "/progress/{userId}/courses/{courseId}/complete",
		map[string]string{"userId": userID, "courseId": courseID}, struct{}{})
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return statusErr(op, resp)
	}
	return nil
}

// ListCertificates 404 视为没有证书
func (c *Client) ListCertificates(ctx context.Context, userID string) ([]Certificate, error) {
	const op = "list_certificates"
	resp, err := c.do(ctx, op, http.MethodGet, "/certificates/{userId}", map[string]string{"userId": userID}, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return []Certificate{}, nil
	}
	if !resp.IsSuccess() {
		return nil, statusErr(op, resp)
	}
	var certs []Certificate
	if err := decode(op, resp, &certs); err != nil {
		return nil, err
	}
	return certs, nil
}

// CreateCertificate 409 表示证书已存在，按成功处理并返回已有记录
func (c *Client) CreateCertificate(ctx context.Context, userID string, cert model.Certificate) (*CreateCertificateResult, error) {
	const op = "create_certificate"
	resp, err := c.do(ctx, op, http.MethodPost, "/certificates", nil, createCertificateRequest{
		CourseID:      cert.CourseID,
		Username:      userID,
		CourseName:    cert.CourseName,
		UserName:      cert.UserName,
		TotalSections: cert.TotalSections,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode() == http.StatusConflict:
		var conflict conflictResponse
		// 409 的响应体可能为空，已存在本身就足够
		_ = json.Unmarshal(resp.Body(), &conflict)
		return &CreateCertificateResult{Certificate: conflict.Certificate, Created: false}, nil
	case resp.IsSuccess():
		var created Certificate
		if len(resp.Body()) > 0 {
			if err := decode(op, resp, &created); err != nil {
				return nil, err
			}
		}
		return &CreateCertificateResult{Certificate: &created, Created: true}, nil
	default:
		return nil, statusErr(op, resp)
	}
}

func (c *Client) Login(ctx context.Context, username string) (*model.User, error) {
	const op = "login"
	resp, err := c.do(ctx, op, http.MethodPost, "/user/login", nil, loginRequest{Username: username})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusErr(op, resp)
	}
	var user model.User
	if err := decode(op, resp, &user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		user.Username = username
	}
	return &user, nil
}

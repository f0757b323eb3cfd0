package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/internal/pkg/logger"
	"bugtracker/internal/repository"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

// 并发创建撞号时的重试上限, 冲突靠(project_id, tracking_tag)唯一索引暴露
const maxTagAttempts = 10

// IssueService issue注册表
// 追踪号 {short_tag}-{N}, N按项目内已有数量+1分配, 同事务插入
type IssueService interface {
	Create(actor *model.User, req *dto.CreateIssueRequest) (*dto.CreateIssueResponse, error)
	Change(actor *model.User, tag string, req *dto.ChangeIssueRequest) (*dto.IssueResponse, error)
	GetByTag(actor *model.User, tag string) (*dto.IssueResponse, error)
	ListForProject(actor *model.User, projectID int64) ([]*dto.IssueResponse, error)
	ListForUser(actor *model.User, userID int64) ([]*dto.IssueResponse, error)
	ListAll(actor *model.User) ([]*dto.IssueResponse, error)
	AddAssignee(actor *model.User, tag string, userID int64) error
	RemoveAssignee(actor *model.User, tag string, userID int64) error
}

type issueService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	issueRepo   repository.IssueRepository
	authz       AuthorizationService
}

func NewIssueService(db *gorm.DB, userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository, issueRepo repository.IssueRepository,
	authz AuthorizationService) IssueService {
	return &issueService{
		db:          db,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		issueRepo:   issueRepo,
		authz:       authz,
	}
}

func (s *issueService) Create(actor *model.User, req *dto.CreateIssueRequest) (*dto.CreateIssueResponse, error) {
	project, err := s.projectRepo.FindByID(req.ProjectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrProjectNotFound
		}
		return nil, err
	}

	ok, err := s.authz.CanAccessProject(actor, project.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrNotMember
	}

	if err := s.validateState(req.State); err != nil {
		return nil, err
	}
	if err := s.validatePriority(project.ID, req.Priority); err != nil {
		return nil, err
	}

	attachments, err := encodeAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}

	issue := &model.Issue{
		ProjectID:        project.ID,
		Summary:          req.Summary,
		Priority:         req.Priority,
		State:            req.State,
		Description:      req.Description,
		StepsToReproduce: req.StepsToReproduce,
		Attachments:      attachments,
	}

	// count+1取号, 撞号时整个事务回滚重试
	for attempt := 0; attempt < maxTagAttempts; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			txIssues := s.issueRepo.WithTx(tx)

			count, err := txIssues.CountByProject(project.ID)
			if err != nil {
				return err
			}
			issue.ID = 0
			issue.TrackingTag = fmt.Sprintf("%s-%d", project.ShortTag, count+1)

			if err := txIssues.Create(issue); err != nil {
				return err
			}
			// 创建者自动成为第一个被指派人
			return txIssues.AddAssignee(issue.ID, actor.ID)
		})
		if err == nil {
			logger.Info("issue创建成功",
				zap.String("tag", issue.TrackingTag),
				zap.Int64("project_id", project.ID),
				zap.String("actor", actor.Username))
			return &dto.CreateIssueResponse{Success: true, Tag: issue.TrackingTag}, nil
		}
		if !errors.Is(err, pkgErrors.ErrRecordExists) {
			return nil, err
		}
	}

	logger.Error("issue编号分配重试耗尽",
		zap.Int64("project_id", project.ID),
		zap.Int("attempts", maxTagAttempts))
	return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "issue编号分配失败", err)
}

func (s *issueService) Change(actor *model.User, tag string, req *dto.ChangeIssueRequest) (*dto.IssueResponse, error) {
	issue, err := s.findAccessible(actor, tag)
	if err != nil {
		return nil, err
	}

	if req.State != nil {
		if err := s.validateState(*req.State); err != nil {
			return nil, err
		}
		issue.State = *req.State
	}
	if req.Priority != nil {
		if err := s.validatePriority(issue.ProjectID, *req.Priority); err != nil {
			return nil, err
		}
		issue.Priority = *req.Priority
	}
	if req.Summary != nil {
		issue.Summary = *req.Summary
	}
	if req.Description != nil {
		issue.Description = *req.Description
	}
	if req.StepsToReproduce != nil {
		issue.StepsToReproduce = *req.StepsToReproduce
	}
	if req.Attachments != nil {
		attachments, err := encodeAttachments(*req.Attachments)
		if err != nil {
			return nil, err
		}
		issue.Attachments = attachments
	}

	if err := s.issueRepo.Update(issue); err != nil {
		return nil, err
	}
	return toIssueResponse(issue), nil
}

func (s *issueService) GetByTag(actor *model.User, tag string) (*dto.IssueResponse, error) {
	issue, err := s.findAccessible(actor, tag)
	if err != nil {
		return nil, err
	}
	return toIssueResponse(issue), nil
}

func (s *issueService) ListForProject(actor *model.User, projectID int64) ([]*dto.IssueResponse, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrProjectNotFound
		}
		return nil, err
	}

	ok, err := s.authz.CanAccessProject(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrNotMember
	}

	issues, err := s.issueRepo.ListByProject(projectID)
	if err != nil {
		return nil, err
	}
	return toIssueResponses(issues), nil
}

// ListForUser 查某用户被指派的issue, 只允许本人或admin
func (s *issueService) ListForUser(actor *model.User, userID int64) ([]*dto.IssueResponse, error) {
	if !s.authz.CanViewUserProfile(actor, userID) {
		return nil, pkgErrors.ErrForbidden
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}

	issues, err := s.issueRepo.ListByAssignee(userID)
	if err != nil {
		return nil, err
	}
	return toIssueResponses(issues), nil
}

func (s *issueService) ListAll(actor *model.User) ([]*dto.IssueResponse, error) {
	if !actor.IsAdmin() {
		return nil, pkgErrors.ErrAdminOnly
	}
	issues, err := s.issueRepo.ListAll()
	if err != nil {
		return nil, err
	}
	return toIssueResponses(issues), nil
}

func (s *issueService) AddAssignee(actor *model.User, tag string, userID int64) error {
	issue, err := s.findAccessible(actor, tag)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return pkgErrors.ErrUserNotFound
		}
		return err
	}

	// 被指派人必须是项目成员
	isMember, err := s.authz.IsMember(issue.ProjectID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "被指派人不是项目成员")
	}

	return s.issueRepo.AddAssignee(issue.ID, userID)
}

func (s *issueService) RemoveAssignee(actor *model.User, tag string, userID int64) error {
	issue, err := s.findAccessible(actor, tag)
	if err != nil {
		return err
	}
	return s.issueRepo.RemoveAssignee(issue.ID, userID)
}

// findAccessible 按追踪号查issue, 未知issue一律404, 在成员判定之前
func (s *issueService) findAccessible(actor *model.User, tag string) (*model.Issue, error) {
	issue, err := s.issueRepo.FindByTag(tag)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrIssueNotFound
		}
		return nil, err
	}

	ok, err := s.authz.CanAccessProject(actor, issue.ProjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrNotMember
	}
	return issue, nil
}

func (s *issueService) validateState(state string) error {
	if !lo.Contains(constants.IssueStates, state) {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "无效的issue状态: "+state)
	}
	return nil
}

func (s *issueService) validatePriority(projectID int64, priority string) error {
	priorities, err := s.projectRepo.ListPriorities(projectID)
	if err != nil {
		return err
	}
	ok := lo.ContainsBy(priorities, func(p *model.ProjectPriority) bool {
		return p.Name == priority
	})
	if !ok {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "无效的优先级: "+priority)
	}
	return nil
}

func encodeAttachments(links []string) (datatypes.JSON, error) {
	if len(links) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "附件格式错误", err)
	}
	return data, nil
}

func decodeAttachments(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return nil
	}
	return links
}

func toIssueResponse(issue *model.Issue) *dto.IssueResponse {
	resp := &dto.IssueResponse{
		ID:               issue.ID,
		Tag:              issue.TrackingTag,
		ProjectID:        issue.ProjectID,
		Summary:          issue.Summary,
		Priority:         issue.Priority,
		State:            issue.State,
		Description:      issue.Description,
		StepsToReproduce: issue.StepsToReproduce,
		Attachments:      decodeAttachments(issue.Attachments),
		CreatedAt:        issue.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, a := range issue.Assignees {
		if a.User != nil {
			resp.Assignees = append(resp.Assignees, toUserResponse(a.User))
		}
	}
	return resp
}

func toIssueResponses(issues []*model.Issue) []*dto.IssueResponse {
	return lo.Map(issues, func(i *model.Issue, _ int) *dto.IssueResponse {
		return toIssueResponse(i)
	})
}

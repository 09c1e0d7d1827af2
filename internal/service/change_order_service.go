package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcline/studio-backend/internal/document"
	"github.com/arcline/studio-backend/internal/domain/valueobject"
	"github.com/arcline/studio-backend/internal/goroutine"
	"github.com/arcline/studio-backend/internal/logger"
	"github.com/arcline/studio-backend/internal/mailer"
	"github.com/arcline/studio-backend/internal/models"
	"github.com/arcline/studio-backend/internal/pkg/apperror"
	"github.com/arcline/studio-backend/internal/repository"
)

// ChangeOrderRepo описывает взаимодействие движка с хранилищем записей.
// UpdateGuarded — оптимистическая запись: хранилище применяет изменение,
// только если текущий статус записи входит в разрешённый набор.
type ChangeOrderRepo interface {
	Create(ctx context.Context, co *models.ChangeOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ChangeOrder, error)
	UpdateGuarded(ctx context.Context, co *models.ChangeOrder, allowedStatuses []string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DirectoryRepo — справочник проектов, клиентов и контактов.
type DirectoryRepo interface {
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetClientByProject(ctx context.Context, projectID uuid.UUID) (*models.Client, error)
	GetContactEmail(ctx context.Context, clientID uuid.UUID) (*models.ClientContact, error)
}

// CompanyRepo — реквизиты фирмы для шапки документов.
type CompanyRepo interface {
	Get(ctx context.Context) (*models.CompanySettings, error)
}

// UserRepo — профили сотрудников (сохранённая подпись).
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateSavedSignature(ctx context.Context, id uuid.UUID, raster []byte) error
}

// Mailer — внешний канал отправки писем с вложением.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// DocumentStore — внешнее хранилище копий утверждённых документов.
type DocumentStore interface {
	Save(ctx context.Context, projectID uuid.UUID, fileName string, data []byte) (string, error)
}

// EventPublisher рассылает события жизненного цикла подключённым клиентам UI.
type EventPublisher interface {
	BroadcastToProject(projectID uuid.UUID, event string, data any) error
}

// ArtifactRenderer — генератор печатного документа из снимка записи.
type ArtifactRenderer interface {
	Render(co *models.ChangeOrder, docCtx document.Context) ([]byte, error)
}

// CreateChangeOrderInput — входные данные создания записи.
type CreateChangeOrderInput struct {
	ProjectID         uuid.UUID
	Title             string
	Description       string
	Reason            *string
	Notes             *string
	RequestedBy       valueobject.RequestedBy
	DepositPercentage float64
	LineItems         []valueobject.LineItem
}

// UpdateChangeOrderInput — частичное обновление; nil-поля не трогаются.
type UpdateChangeOrderInput struct {
	Title             *string
	Description       *string
	Reason            *string
	Notes             *string
	RequestedBy       *valueobject.RequestedBy
	DepositPercentage *float64
	LineItems         []valueobject.LineItem
}

// ChangeOrderService — движок жизненного цикла изменений к договору.
// Все действия над одной записью взаимоисключающие: guard проверяется под
// per-record мьютексом, а хранилище дополнительно защищает запись
// оптимистической проверкой статуса.
type ChangeOrderService struct {
	repo      ChangeOrderRepo
	directory DirectoryRepo
	company   CompanyRepo
	users     UserRepo
	mailer    Mailer
	docs      DocumentStore
	generator ArtifactRenderer
	events    EventPublisher
	cache     *CacheService

	locks sync.Map // uuid.UUID -> *sync.Mutex

	// runAsync выполняет отложенную best-effort работу (выгрузку копии
	// документа после утверждения). Подменяется в тестах.
	runAsync func(fn func())
}

// NewChangeOrderService создаёт движок.
func NewChangeOrderService(
	repo ChangeOrderRepo,
	directory DirectoryRepo,
	company CompanyRepo,
	users UserRepo,
	mailer Mailer,
	docs DocumentStore,
	generator ArtifactRenderer,
	cache *CacheService,
) *ChangeOrderService {
	return &ChangeOrderService{
		repo:      repo,
		directory: directory,
		company:   company,
		users:     users,
		mailer:    mailer,
		docs:      docs,
		generator: generator,
		cache:     cache,
		runAsync:  goroutine.SafeGo,
	}
}

// SetEventPublisher подключает рассылку событий (опционально).
func (s *ChangeOrderService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

func (s *ChangeOrderService) lock(id uuid.UUID) func() {
	muIface, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// forgetLock убирает мьютекс записи из карты. Вызывается при удалении и при
// переходе в терминальный статус: новых конкурирующих действий над записью не
// будет, а повторное обращение создаст мьютекс заново.
func (s *ChangeOrderService) forgetLock(id uuid.UUID) {
	s.locks.Delete(id)
}

// Create создаёт запись. Начальный статус задаётся явно: черновик либо
// ожидание внутренней подписи.
func (s *ChangeOrderService) Create(ctx context.Context, input CreateChangeOrderInput, asDraft bool) (*models.ChangeOrder, error) {
	items := valueobject.LineItems{Detailed: input.LineItems}
	if err := valueobject.ValidateLineItems(items); err != nil {
		return nil, err
	}
	if !input.RequestedBy.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный инициатор изменения")
	}
	if input.DepositPercentage < 0 || input.DepositPercentage > 100 {
		return nil, apperror.New(apperror.ErrCodeValidation, "процент аванса должен быть в диапазоне 0–100")
	}

	if _, err := s.directory.GetProject(ctx, input.ProjectID); err != nil {
		return nil, s.mapDirectoryError(err)
	}

	status := valueobject.StatusPendingInternal
	if asDraft {
		status = valueobject.StatusDraft
	}

	co := &models.ChangeOrder{
		ID:                uuid.New(),
		ProjectID:         input.ProjectID,
		Title:             input.Title,
		Description:       input.Description,
		Reason:            input.Reason,
		Notes:             input.Notes,
		RequestedBy:       string(input.RequestedBy),
		DepositPercentage: input.DepositPercentage,
		Status:            string(status),
		Amount:            valueobject.ComputeTotal(input.LineItems, input.RequestedBy),
		LineItems:         toItemModels(input.LineItems),
	}

	if err := s.repo.Create(ctx, co); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать изменение к договору")
	}

	s.publish(co, "change_order.created")
	return co, nil
}

// Get возвращает запись по идентификатору.
func (s *ChangeOrderService) Get(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	return s.load(ctx, id)
}

// ListByProject возвращает изменения проекта.
func (s *ChangeOrderService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ChangeOrder, error) {
	orders, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список изменений")
	}
	return orders, nil
}

// Edit изменяет поля и позиции. Доступно только до внутренней подписи;
// итоговая сумма пересчитывается заново — знак не доверяется прошлым правкам.
func (s *ChangeOrderService) Edit(ctx context.Context, id uuid.UUID, input UpdateChangeOrderInput) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.CanEdit() {
		return nil, apperror.GuardViolation("документ нельзя редактировать в текущем статусе")
	}

	if input.Title != nil {
		co.Title = *input.Title
	}
	if input.Description != nil {
		co.Description = *input.Description
	}
	if input.Reason != nil {
		co.Reason = input.Reason
	}
	if input.Notes != nil {
		co.Notes = input.Notes
	}
	if input.RequestedBy != nil {
		if !input.RequestedBy.IsValid() {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный инициатор изменения")
		}
		co.RequestedBy = string(*input.RequestedBy)
	}
	if input.DepositPercentage != nil {
		if *input.DepositPercentage < 0 || *input.DepositPercentage > 100 {
			return nil, apperror.New(apperror.ErrCodeValidation, "процент аванса должен быть в диапазоне 0–100")
		}
		co.DepositPercentage = *input.DepositPercentage
	}
	if input.LineItems != nil {
		if err := valueobject.ValidateLineItems(valueobject.LineItems{Detailed: input.LineItems}); err != nil {
			return nil, err
		}
		co.LineItems = toItemModels(input.LineItems)
		co.LegacyServiceNames = nil
	}

	items := co.Items().Normalize(co.Amount)
	co.Amount = valueobject.ComputeTotal(items, valueobject.RequestedBy(co.RequestedBy))

	if err := s.persist(ctx, co, editableStatuses); err != nil {
		return nil, err
	}

	s.publish(co, "change_order.updated")
	return co, nil
}

// SignInternally ставит внутреннюю подпись и переводит документ в ожидание
// клиента. Подпись ставится ровно один раз; пустой растр отклоняется до
// любых изменений записи.
func (s *ChangeOrderService) SignInternally(ctx context.Context, id uuid.UUID, raster []byte, signer *models.User, saveSignature bool) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if co.InternalSignedAt != nil {
		return nil, apperror.ErrAlreadySigned
	}
	if !co.CanSignInternally() {
		return nil, apperror.GuardViolation("документ нельзя подписать в текущем статусе")
	}
	if len(raster) == 0 {
		return nil, apperror.ErrEmptySignature
	}

	now := time.Now()
	co.InternalSignedAt = &now
	co.InternalSignedBy = &signer.DisplayName
	co.InternalSignatureData = raster
	co.Status = string(valueobject.StatusPendingClient)

	if err := s.persist(ctx, co, editableStatuses); err != nil {
		return nil, err
	}

	if saveSignature {
		// Настройка профиля, не часть транзакции подписания: неудача не
		// отменяет подпись.
		if err := s.users.UpdateSavedSignature(ctx, signer.ID, raster); err != nil {
			logger.Log.WithField("user_id", signer.ID).
				WithError(err).Warn("не удалось обновить сохранённую подпись")
		}
	}

	s.publish(co, "change_order.signed")
	return co, nil
}

// Send выполняет конвейер отправки клиенту. Каждый шаг может независимо
// отказать; запись меняется только после подтверждённой отправки письма.
func (s *ChangeOrderService) Send(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.CanSend() {
		return nil, apperror.GuardViolation("документ нельзя отправить: требуется внутренняя подпись и отсутствие прошлой отправки")
	}
	return s.dispatch(ctx, co)
}

// Resend повторяет отправку, пока клиент не подписал документ.
// Получатель разрешается заново: контакты клиента могли измениться.
func (s *ChangeOrderService) Resend(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.CanResend() {
		return nil, apperror.GuardViolation("документ нельзя отправить повторно в текущем статусе")
	}
	return s.dispatch(ctx, co)
}

// dispatch — пять шагов конвейера строго по порядку: клиент → email →
// документ → отправка → фиксация. Переход состояния всегда последний шаг.
func (s *ChangeOrderService) dispatch(ctx context.Context, co *models.ChangeOrder) (*models.ChangeOrder, error) {
	client, err := s.directory.GetClientByProject(ctx, co.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, apperror.ErrNoClientLinked
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось определить клиента проекта")
	}

	contact, err := s.directory.GetContactEmail(ctx, client.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoContactEmail) {
			return nil, apperror.ErrNoContactEmail
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось определить email клиента")
	}

	artifact, err := s.renderArtifact(ctx, co)
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Change Order #%03d — %s", co.CONumber, co.Title)
	body := fmt.Sprintf(
		"<p>Здравствуйте, %s!</p><p>Направляем изменение к договору №%03d «%s» на подпись. Документ во вложении.</p>",
		contact.Name, co.CONumber, co.Title,
	)
	msg := mailer.Message{
		To:             *contact.Email,
		Subject:        subject,
		HTMLBody:       body,
		AttachmentName: document.Filename(co),
		AttachmentMIME: "application/pdf",
		Attachment:     artifact,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Log.WithField("change_order_id", co.ID).WithError(err).Error("отправка документа клиенту не удалась")
		return nil, apperror.Wrap(err, apperror.ErrCodeDispatch, "не удалось отправить письмо клиенту")
	}

	// Фиксация — только после подтверждённой отправки.
	now := time.Now()
	co.SentAt = &now
	co.SentToEmail = contact.Email
	if err := s.persist(ctx, co, []string{string(valueobject.StatusPendingClient)}); err != nil {
		return nil, err
	}

	s.publish(co, "change_order.sent")
	return co, nil
}

// Approve утверждает документ. Копия документа выгружается в хранилище
// отдельной best-effort задачей: её неудача не откатывает утверждение.
func (s *ChangeOrderService) Approve(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.CanApprove() {
		return nil, apperror.GuardViolation("утвердить можно только документ, ожидающий подписи")
	}

	allowed := []string{string(valueobject.StatusPendingClient), string(valueobject.StatusPendingInternal)}
	now := time.Now()
	co.ApprovedAt = &now
	co.Status = string(valueobject.StatusApproved)

	if err := s.persist(ctx, co, allowed); err != nil {
		return nil, err
	}

	s.forgetLock(id)
	s.persistArtifactCopy(co)
	s.publish(co, "change_order.approved")
	return co, nil
}

// persistArtifactCopy ставит выгрузку копии утверждённого документа в фон.
func (s *ChangeOrderService) persistArtifactCopy(co *models.ChangeOrder) {
	snapshot := *co
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		artifact, err := s.renderArtifact(ctx, &snapshot)
		if err == nil {
			_, err = s.docs.Save(ctx, snapshot.ProjectID, document.Filename(&snapshot), artifact)
		}
		if err != nil {
			// Некритичная ошибка: утверждение уже зафиксировано.
			logger.Log.WithField("change_order_id", snapshot.ID).
				WithError(err).Warn("не удалось выгрузить копию утверждённого документа")
		}
	})
}

// Reject отклоняет документ (решение клиента). Терминальный статус.
func (s *ChangeOrderService) Reject(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.CanReject() {
		return nil, apperror.GuardViolation("документ нельзя отклонить в текущем статусе")
	}

	allowed := nonTerminalStatuses()
	co.Status = string(valueobject.StatusRejected)
	if err := s.persist(ctx, co, allowed); err != nil {
		return nil, err
	}

	s.forgetLock(id)
	s.publish(co, "change_order.rejected")
	return co, nil
}

// Void аннулирует документ (административная отмена). Терминальный статус.
func (s *ChangeOrderService) Void(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.CanVoid() {
		return nil, apperror.GuardViolation("документ нельзя аннулировать в текущем статусе")
	}

	allowed := append(nonTerminalStatuses(), string(valueobject.StatusRejected))
	co.Status = string(valueobject.StatusVoided)
	if err := s.persist(ctx, co, allowed); err != nil {
		return nil, err
	}

	s.forgetLock(id)
	s.publish(co, "change_order.voided")
	return co, nil
}

// Delete физически удаляет черновик.
func (s *ChangeOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	defer s.lock(id)()

	co, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !co.CanDelete() {
		return apperror.GuardViolation("удалить можно только черновик")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err)
	}

	s.forgetLock(id)
	s.publish(co, "change_order.deleted")
	return nil
}

// GenerateArtifact собирает документ по текущему снимку записи
// (предпросмотр и скачивание).
func (s *ChangeOrderService) GenerateArtifact(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	co, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	artifact, err := s.renderArtifact(ctx, co)
	if err != nil {
		return nil, "", err
	}
	return artifact, document.Filename(co), nil
}

// Timeline возвращает историю записи, выведенную из временных меток.
func (s *ChangeOrderService) Timeline(ctx context.Context, id uuid.UUID) ([]models.TimelineEntry, error) {
	co, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return co.Timeline(), nil
}

// renderArtifact собирает внешние реквизиты и генерирует документ.
func (s *ChangeOrderService) renderArtifact(ctx context.Context, co *models.ChangeOrder) ([]byte, error) {
	docCtx, err := s.buildDocumentContext(ctx, co.ProjectID)
	if err != nil {
		return nil, err
	}
	artifact, err := s.generator.Render(co, docCtx)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (s *ChangeOrderService) buildDocumentContext(ctx context.Context, projectID uuid.UUID) (document.Context, error) {
	var docCtx document.Context

	company, err := s.companySettings(ctx)
	if err != nil {
		return docCtx, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить реквизиты фирмы")
	}
	docCtx.CompanyName = company.Name
	if company.Address != nil {
		docCtx.CompanyAddress = *company.Address
	}
	if company.Email != nil {
		docCtx.CompanyEmail = *company.Email
	}
	if company.Phone != nil {
		docCtx.CompanyPhone = *company.Phone
	}

	project, err := s.directory.GetProject(ctx, projectID)
	if err != nil {
		return docCtx, s.mapDirectoryError(err)
	}
	docCtx.ProjectNumber = project.Number
	docCtx.ProjectName = project.Name
	if project.Address != nil {
		docCtx.ProjectAddress = *project.Address
	}

	// Для предпросмотра клиент может быть ещё не привязан.
	if client, err := s.directory.GetClientByProject(ctx, projectID); err == nil {
		docCtx.ClientName = client.DisplayName
	} else if !errors.Is(err, repository.ErrClientNotFound) {
		return docCtx, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось определить клиента проекта")
	}

	return docCtx, nil
}

// companySettings читает реквизиты фирмы через кэш: они нужны каждому
// сгенерированному документу и меняются редко.
func (s *ChangeOrderService) companySettings(ctx context.Context) (*models.CompanySettings, error) {
	if s.cache == nil {
		return s.company.Get(ctx)
	}
	value, err := s.cache.GetOrSet(ctx, CompanySettingsCacheKey(), 10*time.Minute, func() (interface{}, error) {
		return s.company.Get(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.CompanySettings), nil
}

// persist пишет запись через оптимистический guard хранилища и переводит
// ошибки хранилища в доменные.
func (s *ChangeOrderService) persist(ctx context.Context, co *models.ChangeOrder, allowedStatuses []string) error {
	if err := s.repo.UpdateGuarded(ctx, co, allowedStatuses); err != nil {
		return s.mapRepoError(err)
	}
	return nil
}

func (s *ChangeOrderService) load(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	co, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return co, nil
}

func (s *ChangeOrderService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrChangeOrderNotFound):
		return apperror.ErrChangeOrderNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return apperror.ErrStoreConflict
	default:
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища изменений")
	}
}

func (s *ChangeOrderService) mapDirectoryError(err error) error {
	if errors.Is(err, repository.ErrProjectNotFound) {
		return apperror.ErrProjectNotFound
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка справочника проектов")
}

func (s *ChangeOrderService) publish(co *models.ChangeOrder, event string) {
	if s.events == nil {
		return
	}
	payload := map[string]any{
		"id":        co.ID,
		"co_number": co.CONumber,
		"status":    co.Status,
	}
	if err := s.events.BroadcastToProject(co.ProjectID, event, payload); err != nil {
		logger.Log.WithField("change_order_id", co.ID).WithError(err).Warn("не удалось разослать событие")
	}
}

var editableStatuses = []string{
	string(valueobject.StatusDraft),
	string(valueobject.StatusPendingInternal),
}

func nonTerminalStatuses() []string {
	return []string{
		string(valueobject.StatusDraft),
		string(valueobject.StatusPendingInternal),
		string(valueobject.StatusPendingClient),
	}
}

func toItemModels(items []valueobject.LineItem) []models.ChangeOrderItem {
	out := make([]models.ChangeOrderItem, len(items))
	for i, item := range items {
		model := models.ChangeOrderItem{
			ID:       uuid.New(),
			Name:     item.Name,
			Amount:   item.Amount,
			Position: i,
		}
		if item.Description != "" {
			desc := item.Description
			model.Description = &desc
		}
		out[i] = model
	}
	return out
}

package service

import (
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	repo  repository.ProductRepository
	audit *AuditService
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, audit *AuditService) *ProductService {
	return &ProductService{repo: repo, audit: audit}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	IsActive    *bool
	SortOrder   int
}

// ListPublic 上架商品列表
func (s *ProductService) ListPublic(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     search,
		OnlyActive: true,
	})
}

// ListAdmin 后台商品列表
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
}

// GetPublic 获取上架商品
func (s *ProductService) GetPublic(id uint) (*models.Product, error) {
	product, err := s.GetAdmin(id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetAdmin 获取商品（含下架）
func (s *ProductService) GetAdmin(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(actor Actor, input ProductInput) (*models.Product, error) {
	input, err := normalizeProductInput(input)
	if err != nil {
		return nil, err
	}
	exist, err := s.repo.GetBySKU(input.SKU)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrProductSKUExists
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	now := time.Now()
	product := &models.Product{
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		Price:       models.NewMoneyFromDecimal(input.Price),
		IsActive:    isActive,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(product); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrProductSKUExists
		}
		return nil, err
	}
	if !isActive {
		if err := s.repo.Update(product); err != nil {
			return nil, err
		}
	}
	s.record(actor, constants.AuditActionProductCreate, product)
	return product, nil
}

// Update 更新商品；已下单的行项目保存的是下单时单价，不受影响
func (s *ProductService) Update(actor Actor, id uint, input ProductInput) (*models.Product, error) {
	product, err := s.GetAdmin(id)
	if err != nil {
		return nil, err
	}
	input, err = normalizeProductInput(input)
	if err != nil {
		return nil, err
	}
	if input.SKU != product.SKU {
		dup, err := s.repo.GetBySKU(input.SKU)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrProductSKUExists
		}
	}
	product.SKU = input.SKU
	product.Name = input.Name
	product.Description = input.Description
	product.Price = models.NewMoneyFromDecimal(input.Price)
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.UpdatedAt = time.Now()
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	s.record(actor, constants.AuditActionProductUpdate, product)
	return product, nil
}

func (s *ProductService) record(actor Actor, action string, product *models.Product) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(AuditRecordInput{
		Actor:      actor,
		Action:     action,
		TargetType: constants.AuditTargetProduct,
		TargetID:   product.ID,
		Detail: models.JSON{
			"sku":       product.SKU,
			"price":     product.Price.String(),
			"is_active": product.IsActive,
		},
	})
	if err != nil {
		logger.Warnw("product_audit_failed", "product_id", product.ID, "action", action, "error", err)
	}
}

func normalizeProductInput(input ProductInput) (ProductInput, error) {
	input.SKU = strings.ToUpper(strings.TrimSpace(input.SKU))
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Price = input.Price.Round(2)
	if input.SKU == "" || input.Name == "" {
		return input, ErrInvalidProduct
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return input, ErrInvalidProduct
	}
	return input, nil
}

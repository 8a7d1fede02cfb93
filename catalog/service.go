package catalog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"bookstore/apperror"
	"bookstore/database"
	"bookstore/locks"
	"bookstore/models"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

type Service struct {
	products database.ProductStore
	locks    *locks.Keyed
	engine   *Engine
	validate *validator.Validate
	log      *log.Entry
	now      func() time.Time
}

func NewService(products database.ProductStore, lk *locks.Keyed, engine *Engine, logger *log.Entry) *Service {
	return &Service{
		products: products,
		locks:    lk,
		engine:   engine,
		validate: newValidator(),
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Query loads the catalog and runs it through the engine.
func (s *Service) Query(ctx context.Context, opts Options) (Result, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.engine.Query(products, opts), nil
}

func (s *Service) Get(ctx context.Context, id int) (models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Product{}, apperror.ErrProductNotFound
	}
	return p, err
}

func (s *Service) Create(ctx context.Context, in CreateInput, createdBy string) (models.Product, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return models.Product{}, &apperror.Error{
			Kind:    apperror.ErrValidation,
			Message: "Missing required fields: " + strings.Join(missing, ", "),
			Fields:  missing,
		}
	}
	if err := s.validate.Struct(in); err != nil {
		return models.Product{}, validationError(err)
	}

	now := s.now()
	p := models.Product{
		Title:         strings.TrimSpace(*in.Title),
		Author:        strings.TrimSpace(*in.Author),
		ISBN:          strings.TrimSpace(in.ISBN),
		Category:      orDefault(in.Category, models.DefaultCategory),
		Description:   strings.TrimSpace(in.Description),
		ImageURL:      orDefault(in.ImageURL, models.DefaultImageURL),
		Price:         *in.Price,
		DiscountPrice: in.DiscountPrice.Value,
		Stock:         *in.Stock,
		IsActive:      true,
		Featured:      in.Featured,
		Rating:        in.Rating.Value,
		ReviewCount:   in.ReviewCount,
		Tags:          in.Tags,
		Specifications: models.Specifications{
			Pages:     string(in.Pages),
			Language:  models.DefaultLanguage,
			Publisher: strings.TrimSpace(in.Publisher),
			Year:      string(in.Year),
			Format:    models.DefaultFormat,
		},
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if problems := p.Validate(); len(problems) > 0 {
		return models.Product{}, apperror.Validation("%s", strings.Join(problems, "; "))
	}

	if err := s.products.Insert(ctx, &p); err != nil {
		return models.Product{}, err
	}
	s.log.WithFields(log.Fields{"productId": p.ID, "createdBy": createdBy}).Info("product created")
	return p, nil
}

// Update merges the allow-listed fields into the stored product under the product lock.
// Invariants are checked on the merged record before anything is written.
func (s *Service) Update(ctx context.Context, id int, u ProductUpdate) (models.Product, error) {
	if err := s.validate.Struct(u); err != nil {
		return models.Product{}, validationError(err)
	}

	unlock := s.locks.Lock(locks.ProductKey(id))
	defer unlock()

	var updated models.Product
	err := database.RetryOnConflict(ctx, func() error {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		apply(&p, u)
		if problems := p.Validate(); len(problems) > 0 {
			return apperror.Validation("%s", strings.Join(problems, "; "))
		}
		p.UpdatedAt = s.now()
		if err := s.products.Replace(ctx, &p); err != nil {
			return mapNotFound(err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	s.log.WithField("productId", id).Info("product updated")
	return updated, nil
}

// Delete deactivates the product, or removes it when permanent is set.
func (s *Service) Delete(ctx context.Context, id int, permanent bool) error {
	unlock := s.locks.Lock(locks.ProductKey(id))
	defer unlock()

	if permanent {
		if err := s.products.Delete(ctx, id); err != nil {
			return mapNotFound(err)
		}
		s.log.WithField("productId", id).Info("product deleted")
		return nil
	}

	err := database.RetryOnConflict(ctx, func() error {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		p.IsActive = false
		p.UpdatedAt = s.now()
		return mapNotFound(s.products.Replace(ctx, &p))
	})
	if err != nil {
		return err
	}
	s.log.WithField("productId", id).Info("product deactivated")
	return nil
}

func apply(p *models.Product, u ProductUpdate) {
	if u.Title != nil {
		p.Title = strings.TrimSpace(*u.Title)
	}
	if u.Author != nil {
		p.Author = strings.TrimSpace(*u.Author)
	}
	if u.ISBN != nil {
		p.ISBN = strings.TrimSpace(*u.ISBN)
	}
	if u.Category != nil {
		p.Category = strings.TrimSpace(*u.Category)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.DiscountPrice.Set {
		p.DiscountPrice = u.DiscountPrice.Value
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
	if u.Rating.Set {
		p.Rating = u.Rating.Value
	}
	if u.ReviewCount != nil {
		p.ReviewCount = *u.ReviewCount
	}
	if u.Tags != nil {
		p.Tags = append([]string{}, (*u.Tags)...)
	}
	if spec := u.Specifications; spec != nil {
		if spec.Pages != nil {
			p.Specifications.Pages = string(*spec.Pages)
		}
		if spec.Language != nil {
			p.Specifications.Language = *spec.Language
		}
		if spec.Publisher != nil {
			p.Specifications.Publisher = *spec.Publisher
		}
		if spec.Year != nil {
			p.Specifications.Year = string(*spec.Year)
		}
		if spec.Format != nil {
			p.Specifications.Format = *spec.Format
		}
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperror.ErrProductNotFound
	}
	return err
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("%s", err.Error())
	}
	fields := make([]string, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
	}
	return &apperror.Error{
		Kind:    apperror.ErrValidation,
		Message: "Invalid fields: " + strings.Join(msgs, ", "),
		Fields:  fields,
	}
}

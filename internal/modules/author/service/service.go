package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/moviecatalog/internal/entity"
	"anoa.com/moviecatalog/internal/modules/author/dto"
	"anoa.com/moviecatalog/internal/modules/author/repository"
	userRepo "anoa.com/moviecatalog/internal/modules/user/repository"
	"anoa.com/moviecatalog/pkg/apperror"
	commonDto "anoa.com/moviecatalog/pkg/dto"
	"anoa.com/moviecatalog/pkg/validator"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errNotFound = apperror.NotFound("Not found.")

type AuthorService interface {
	List(ctx context.Context, filter dto.AuthorFilter) ([]dto.AuthorResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AuthorResponse, error)
	Create(ctx context.Context, req dto.CreateAuthorRequest) (*dto.AuthorResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateAuthorRequest) (*dto.AuthorResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type authorService struct {
	repo  repository.AuthorRepository
	users userRepo.UserRepository
}

func NewAuthorService(repo repository.AuthorRepository, users userRepo.UserRepository) AuthorService {
	return &authorService{repo: repo, users: users}
}

func (s *authorService) List(ctx context.Context, filter dto.AuthorFilter) ([]dto.AuthorResponse, error) {
	authors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AuthorResponse, 0, len(authors))
	for i := range authors {
		out = append(out, dto.NewAuthorResponse(&authors[i]))
	}
	return out, nil
}

func (s *authorService) Get(ctx context.Context, id uuid.UUID) (*dto.AuthorResponse, error) {
	author, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewAuthorResponse(author)
	return &resp, nil
}

func (s *authorService) Create(ctx context.Context, req dto.CreateAuthorRequest) (*dto.AuthorResponse, error) {
	username := strings.TrimSpace(req.Username)
	if !validator.ValidUsername(username) {
		return nil, apperror.Field("username", validator.InvalidUsername)
	}

	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Field("username", "A user with that username already exists.")
	}

	birthdate, err := commonDto.ParseDate(req.Birthdate)
	if err != nil {
		return nil, apperror.Field("birthdate", "Date has wrong format. Use YYYY-MM-DD.")
	}

	role, err := s.users.FindRoleByName(ctx, entity.RoleAuthor)
	if err != nil {
		return nil, err
	}

	// Authors created without a password cannot log in.
	password := req.Password
	if password == "" {
		password = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		RoleID:       &role.ID,
	}
	author := &entity.Author{
		Biography:   req.Biography,
		Website:     req.Website,
		Birthdate:   birthdate,
		Nationality: req.Nationality,
		Source:      entity.SourceAdmin,
	}

	if err := s.repo.Create(ctx, user, author); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Field("username", "A user with that username already exists.")
		}
		return nil, err
	}

	log.Info().Str("author_id", author.UserID.String()).Str("username", username).Msg("author created")
	return s.Get(ctx, author.UserID)
}

func (s *authorService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateAuthorRequest) (*dto.AuthorResponse, error) {
	author, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		author.User.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		author.User.LastName = *req.LastName
	}
	if req.Biography != nil {
		author.Biography = *req.Biography
	}
	if req.Website != nil {
		author.Website = *req.Website
	}
	if req.Nationality != nil {
		author.Nationality = *req.Nationality
	}
	if req.Birthdate != nil {
		birthdate, err := commonDto.ParseDate(*req.Birthdate)
		if err != nil {
			return nil, apperror.Field("birthdate", "Date has wrong format. Use YYYY-MM-DD.")
		}
		author.Birthdate = birthdate
	}

	if err := s.repo.Update(ctx, author); err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *authorService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
		log.Info().Str("author_id", id.String()).Msg("author deleted")
		return nil
	case errors.Is(err, repository.ErrHasMovies):
		return apperror.BadRequest("Cannot delete author with linked movies.")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errNotFound
	default:
		return err
	}
}

func (s *authorService) find(ctx context.Context, id uuid.UUID) (*entity.Author, error) {
	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return author, nil
}

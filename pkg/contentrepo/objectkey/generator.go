package objectkey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for content path strategies
type Generator interface {
	// DocumentKey creates a unique path for a document owned by an entity
	DocumentKey(parentEntityType string, parentEntityID int64) string

	// ImageKey creates the path of an entity image
	ImageKey(resourceID int64, imageName string) string
}

// TokenFunc returns the random segment used for document paths
type TokenFunc func() string

// RandomToken returns 32 lowercase hex characters from a v4 UUID
func RandomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// LegacyGenerator produces the established layout:
//
//	documents/{parentEntityType}/{parentEntityId}/{token}
//	images/clients/{resourceId}/{imageName}
//
// Image paths always use the clients segment, whichever entity owns the image.
type LegacyGenerator struct {
	Token TokenFunc
}

func NewLegacyGenerator() *LegacyGenerator {
	return &LegacyGenerator{Token: RandomToken}
}

func (g *LegacyGenerator) DocumentKey(parentEntityType string, parentEntityID int64) string {
	token := g.Token
	if token == nil {
		token = RandomToken
	}
	return fmt.Sprintf("documents/%s/%d/%s", parentEntityType, parentEntityID, token())
}

func (g *LegacyGenerator) ImageKey(resourceID int64, imageName string) string {
	return fmt.Sprintf("images/clients/%d/%s", resourceID, imageName)
}

// CustomFuncGenerator allows callers to provide their own layout
type CustomFuncGenerator struct {
	DocumentFunc func(parentEntityType string, parentEntityID int64) string
	ImageFunc    func(resourceID int64, imageName string) string
}

func (g *CustomFuncGenerator) DocumentKey(parentEntityType string, parentEntityID int64) string {
	return g.DocumentFunc(parentEntityType, parentEntityID)
}

func (g *CustomFuncGenerator) ImageKey(resourceID int64, imageName string) string {
	return g.ImageFunc(resourceID, imageName)
}

// Key is a parsed content path
type Key struct {
	Category   string
	EntityType string
	EntityID   int64
	Name       string
}

// Parse splits a path produced by LegacyGenerator into its segments.
// The name segment may itself contain slashes.
func Parse(path string) (Key, error) {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 4)
	if len(parts) != 4 || parts[3] == "" {
		return Key{}, fmt.Errorf("path %q does not have category/entity/id/name segments", path)
	}
	if parts[0] != "documents" && parts[0] != "images" {
		return Key{}, fmt.Errorf("path %q has unknown category %q", path, parts[0])
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("path %q has invalid entity id: %w", path, err)
	}
	return Key{Category: parts[0], EntityType: parts[1], EntityID: id, Name: parts[3]}, nil
}

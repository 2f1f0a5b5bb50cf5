package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"convo-cafe/internal/cache"
	"convo-cafe/internal/domain"
	"convo-cafe/internal/repository"
)

var (
	ErrUserNotInCommunity = errors.New("user not found in community")
	ErrProfileMissing     = errors.New("profile record missing")
)

const (
	communityCacheTTL  = 15 * time.Minute
	communityCacheMax  = 5
	similarityCacheTTL = 30 * time.Minute
	similarityCacheMax = 100
	defaultMaxResults  = 6
	defaultWarmUpUsers = 10
	minComputedResults = 10
	warmUpBioBonus     = 5
)

// communityData es el blob cacheado por comunidad: filas crudas para
// enriquecer resultados, analisis preprocesados y el hash del set de perfiles
// que detecta cambios de contenido sin comparacion profunda.
type communityData struct {
	Profiles     []domain.Profile
	ProfilesByID map[string]domain.Profile
	Analyses     []UserResonanceAnalysis
	ProfilesHash string
}

// SimilarProfilesResult es la respuesta publica de GetSimilarProfiles.
type SimilarProfilesResult struct {
	SimilarProfiles []SimilarProfile `json:"similar_profiles"`
	FromCache       bool             `json:"from_cache"`
	CalculationTime time.Duration    `json:"calculation_time"`
}

// CacheStats expone tamaños y contadores de ambos caches.
type CacheStats struct {
	CommunityEntries  int   `json:"community_entries"`
	SimilarityEntries int   `json:"similarity_entries"`
	Hits              int64 `json:"hits"`
	Misses            int64 `json:"misses"`
}

// SimilarityService orquesta el store de perfiles y el calculador con dos
// niveles de cache: datos por comunidad (TTL) y resultados por usuario
// (TTL + version del hash de perfiles). Una instancia por proceso, inyectada
// explicitamente; nada de singletons ambientales.
type SimilarityService struct {
	logger      *zap.Logger
	profiles    repository.ProfileRepository
	calc        *SimilarityCalculator
	communities *cache.Store[string, communityData]
	results     ResultCache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSimilarityService arma el servicio. Con results nil usa el cache en
// memoria con los defaults; communityTTL/communityMax en cero usan 15min/5.
func NewSimilarityService(
	logger *zap.Logger,
	profiles repository.ProfileRepository,
	calc *SimilarityCalculator,
	results ResultCache,
	communityTTL time.Duration,
	communityMax int,
) *SimilarityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = NewSimilarityCalculator()
	}
	if results == nil {
		results = NewMemoryResultCache(similarityCacheTTL, similarityCacheMax)
	}
	if communityTTL <= 0 {
		communityTTL = communityCacheTTL
	}
	if communityMax <= 0 {
		communityMax = communityCacheMax
	}
	return &SimilarityService{
		logger:      logger,
		profiles:    profiles,
		calc:        calc,
		communities: cache.New[string, communityData](communityTTL, communityMax),
		results:     results,
	}
}

// GetSimilarProfiles devuelve los perfiles mas afines al usuario dentro de la
// comunidad. El resultado cacheado solo vale si ademas de estar dentro del TTL
// fue calculado contra el hash actual de perfiles: el TTL del blob comunitario
// y la deteccion de cambios por hash son ejes independientes.
func (s *SimilarityService) GetSimilarProfiles(ctx context.Context, userID, communityID string, maxResults int) (SimilarProfilesResult, error) {
	start := time.Now()
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	data, err := s.communityData(ctx, communityID)
	if err != nil {
		return SimilarProfilesResult{}, err
	}

	cached, ok, err := s.results.Get(ctx, userID, communityID)
	if err != nil {
		s.logger.Warn("similarity cache read failed", zap.Error(err), zap.String("user_id", userID), zap.String("community_id", communityID))
	}
	if ok && cached.ProfilesVersion == data.ProfilesHash {
		s.hits.Add(1)
		return SimilarProfilesResult{
			SimilarProfiles: truncateProfiles(cached.SimilarProfiles, maxResults),
			FromCache:       true,
			CalculationTime: time.Since(start),
		}, nil
	}
	s.misses.Add(1)

	var target *UserResonanceAnalysis
	for i := range data.Analyses {
		if data.Analyses[i].ID == userID {
			target = &data.Analyses[i]
			break
		}
	}
	if target == nil {
		// El usuario no tiene perfil calificante (sin bio y sin resonancias).
		return SimilarProfilesResult{}, fmt.Errorf("%w: user %s in community %s", ErrUserNotInCommunity, userID, communityID)
	}

	// Se calcula de mas para que la entrada cacheada sirva a pedidos
	// posteriores algo mas grandes.
	wanted := maxResults
	if wanted < minComputedResults {
		wanted = minComputedResults
	}
	similar, err := s.calc.FindMostSimilarProfiles(*target, data.Analyses, wanted)
	if err != nil {
		return SimilarProfilesResult{}, err
	}

	for i := range similar {
		profile, ok := data.ProfilesByID[similar[i].UserID]
		if !ok {
			// Inalcanzable: el resultado salio de las mismas filas.
			return SimilarProfilesResult{}, fmt.Errorf("%w: user %s in community %s", ErrProfileMissing, similar[i].UserID, communityID)
		}
		similar[i].Nickname = profile.User.Nickname
		similar[i].Bio = profile.Bio
	}

	if err := s.results.Set(ctx, userID, communityID, CachedResult{
		SimilarProfiles: similar,
		CalculatedAt:    time.Now().UTC(),
		ProfilesVersion: data.ProfilesHash,
	}); err != nil {
		s.logger.Warn("similarity cache write failed", zap.Error(err), zap.String("user_id", userID), zap.String("community_id", communityID))
	}

	return SimilarProfilesResult{
		SimilarProfiles: truncateProfiles(similar, maxResults),
		FromCache:       false,
		CalculationTime: time.Since(start),
	}, nil
}

// InvalidateUserCache borra la entrada del usuario y tira el blob comunitario
// completo. Invalidacion gruesa a proposito: una resonancia nueva cambia el
// hash comunitario de todos modos. Debe llamarse despues de cada escritura de
// perfil o resonancia.
func (s *SimilarityService) InvalidateUserCache(ctx context.Context, userID, communityID string) {
	if err := s.results.Delete(ctx, userID, communityID); err != nil {
		s.logger.Warn("similarity cache delete failed", zap.Error(err), zap.String("user_id", userID), zap.String("community_id", communityID))
	}
	s.communities.Delete(communityID)
}

// InvalidateCommunityCache borra el blob comunitario y todos los resultados de
// esa comunidad.
func (s *SimilarityService) InvalidateCommunityCache(ctx context.Context, communityID string) {
	s.communities.Delete(communityID)
	if err := s.results.DeleteCommunity(ctx, communityID); err != nil {
		s.logger.Warn("similarity cache community delete failed", zap.Error(err), zap.String("community_id", communityID))
	}
}

// WarmUpCache precalcula resultados para los usuarios mas activos de la
// comunidad, en paralelo y con errores por usuario tragados (logueados): una
// falla no bloquea el resto del calentamiento.
func (s *SimilarityService) WarmUpCache(ctx context.Context, communityID string, topUsersCount int) error {
	if topUsersCount <= 0 {
		topUsersCount = defaultWarmUpUsers
	}

	data, err := s.communityData(ctx, communityID)
	if err != nil {
		return err
	}

	ranked := make([]UserResonanceAnalysis, len(data.Analyses))
	copy(ranked, data.Analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return warmUpRank(ranked[i]) > warmUpRank(ranked[j])
	})
	if len(ranked) > topUsersCount {
		ranked = ranked[:topUsersCount]
	}

	var wg sync.WaitGroup
	for _, analysis := range ranked {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if _, err := s.GetSimilarProfiles(ctx, userID, communityID, defaultMaxResults); err != nil {
				s.logger.Warn("cache warmup failed for user", zap.Error(err), zap.String("user_id", userID), zap.String("community_id", communityID))
			}
		}(analysis.ID)
	}
	wg.Wait()

	s.logger.Info("cache warmup finished", zap.String("community_id", communityID), zap.Int("users", len(ranked)))
	return nil
}

// GetCacheStats devuelve tamaños y contadores de aciertos de ambos caches.
func (s *SimilarityService) GetCacheStats(ctx context.Context) CacheStats {
	return CacheStats{
		CommunityEntries:  s.communities.Len(),
		SimilarityEntries: s.results.Len(ctx),
		Hits:              s.hits.Load(),
		Misses:            s.misses.Load(),
	}
}

// communityData devuelve el blob comunitario cacheado (solo chequeo de TTL
// aca; el chequeo de hash ocurre una capa arriba) o lo reconstruye desde el
// store externo.
func (s *SimilarityService) communityData(ctx context.Context, communityID string) (communityData, error) {
	if data, ok := s.communities.Get(communityID); ok {
		return data, nil
	}

	rows, err := s.profiles.ListByCommunity(ctx, communityID)
	if err != nil {
		return communityData{}, fmt.Errorf("list profiles for community %s: %w", communityID, err)
	}

	qualifying := make([]domain.Profile, 0, len(rows))
	byID := make(map[string]domain.Profile, len(rows))
	analyses := make([]UserResonanceAnalysis, 0, len(rows))
	for _, profile := range rows {
		if !profile.HasSimilarityData() {
			continue
		}
		qualifying = append(qualifying, profile)
		byID[profile.UserID] = profile
		analyses = append(analyses, s.calc.PreprocessUserData(profile.UserID, profile.Bio, profile.Resonance))
	}

	data := communityData{
		Profiles:     qualifying,
		ProfilesByID: byID,
		Analyses:     analyses,
		ProfilesHash: profilesHash(qualifying),
	}
	s.communities.Set(communityID, data)
	return data, nil
}

// profilesHash es un digest barato y determinista del set de perfiles:
// id, bio, cantidad de resonancias y timestamp mas reciente de cada uno.
func profilesHash(profiles []domain.Profile) string {
	sorted := make([]domain.Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UserID < sorted[j].UserID
	})

	var b strings.Builder
	for _, p := range sorted {
		fmt.Fprintf(&b, "%s|%s|%d|%s\n", p.UserID, p.Bio, len(p.Resonance), p.MostRecentResonanceAt().UTC().Format(time.RFC3339Nano))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func warmUpRank(analysis UserResonanceAnalysis) int {
	rank := analysis.TotalResonanceCount
	if strings.TrimSpace(analysis.Bio) != "" {
		rank += warmUpBioBonus
	}
	return rank
}

func truncateProfiles(profiles []SimilarProfile, max int) []SimilarProfile {
	if len(profiles) > max {
		return profiles[:max]
	}
	return profiles
}

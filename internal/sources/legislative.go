package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/resilience"
)

// recentVotings is how many Câmara votações are scanned per lookup
const recentVotings = 20

type camaraList[T any] struct {
	Data []T `json:"dados"`
}

type camaraDeputy struct {
	ID    int    `json:"id"`
	Name  string `json:"nome"`
	Party string `json:"siglaPartido"`
}

type camaraVoting struct {
	ID          flexString `json:"id"`
	RecordedAt  string     `json:"dataHoraRegistro"`
	Description string     `json:"descricao"`
	Proposal    *struct {
		Type    string     `json:"siglaTipo"`
		Number  flexString `json:"numero"`
		Year    flexString `json:"ano"`
		Summary string     `json:"ementa"`
	} `json:"proposicaoExterna"`
}

type camaraVoter struct {
	ID    int    `json:"id"`
	Party string `json:"siglaPartido"`
}

type camaraVote struct {
	Choice string `json:"tipoVoto"`
	// The live API names the field "deputado_"; older dumps use "deputado".
	Voter    *camaraVoter `json:"deputado_"`
	VoterOld *camaraVoter `json:"deputado"`
}

func (v camaraVote) deputy() camaraVoter {
	switch {
	case v.Voter != nil:
		return *v.Voter
	case v.VoterOld != nil:
		return *v.VoterOld
	default:
		return camaraVoter{}
	}
}

type camaraOrientation struct {
	Party       string `json:"siglaPartidoBloco"`
	Orientation string `json:"orientacaoVoto"`
}

type senadoList struct {
	Current struct {
		Members struct {
			Member oneOrMany[senadoMember] `json:"Parlamentar"`
		} `json:"Parlamentares"`
	} `json:"ListaParlamentarEmExercicio"`
}

type senadoMember struct {
	ID struct {
		Code flexString `json:"CodigoParlamentar"`
		Name string     `json:"NomeParlamentar"`
	} `json:"IdentificacaoParlamentar"`
}

type senadoVotes struct {
	Voting struct {
		Member struct {
			Votes struct {
				Vote oneOrMany[senadoVote] `json:"Votacao"`
			} `json:"Votacoes"`
		} `json:"Parlamentar"`
	} `json:"VotacaoParlamentar"`
}

type senadoVote struct {
	Session string `json:"CodigoSessao"`
	Date    string `json:"DataSessao"`
	Choice  string `json:"DescricaoVoto"`
	Matter  struct {
		Type    string     `json:"Sigla"`
		Number  flexString `json:"Numero"`
		Year    flexString `json:"Ano"`
		Summary string     `json:"Ementa"`
	} `json:"Materia"`
}

// Legislative resolves a legislator in the Câmara, then the Senado, and
// returns their recent votes
type Legislative struct {
	camaraURL string
	senadoURL string
	deps      Deps
	breaker   *resilience.Breaker
}

// NewLegislative creates the legislative adapter
func NewLegislative(camaraURL, senadoURL string, deps Deps) *Legislative {
	deps = deps.withDefaults()
	return &Legislative{
		camaraURL: strings.TrimRight(camaraURL, "/"),
		senadoURL: strings.TrimRight(senadoURL, "/"),
		deps:      deps,
		breaker:   deps.Breakers.Get(resilience.DependencyLegislative),
	}
}

// VotesFor returns recent votes for name. An unknown legislator or an
// unavailable source yields an empty slice.
func (l *Legislative) VotesFor(ctx context.Context, name string) ([]model.VoteRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []model.VoteRecord{}, nil
	}

	key := cache.CacheKey("legislative", name)
	if votes, ok := cache.GetJSON[[]model.VoteRecord](l.deps.Cache, key); ok {
		return votes, nil
	}

	return resilience.Execute(ctx, l.breaker,
		func(ctx context.Context) ([]model.VoteRecord, error) {
			votes, err := l.fetchLive(ctx, name)
			if err != nil {
				return nil, err
			}
			if len(votes) > 0 {
				if err := cache.SetJSON(l.deps.Cache, key, votes, l.deps.CacheTTL); err != nil {
					l.deps.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
				}
			}
			return votes, nil
		},
		func(ctx context.Context, cause error) ([]model.VoteRecord, error) {
			if votes, ok := cache.GetStaleJSON[[]model.VoteRecord](l.deps.Cache, key); ok {
				l.deps.Logger.Warn("legislative source degraded, serving stale votes",
					zap.String("name", name), zap.Error(cause))
				return votes, nil
			}
			l.deps.Logger.Warn("legislative source degraded, no votes available",
				zap.String("name", name), zap.Error(cause))
			return []model.VoteRecord{}, nil
		})
}

func (l *Legislative) fetchLive(ctx context.Context, name string) ([]model.VoteRecord, error) {
	deputy, err := l.findDeputy(ctx, name)
	if err != nil {
		return nil, err
	}
	if deputy != nil {
		votes, err := l.camaraVotes(ctx, deputy.ID)
		if err != nil || len(votes) > 0 {
			return votes, err
		}
		// a partial name match may be the wrong person; try the Senado
	}

	code, err := l.findSenator(ctx, name)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return []model.VoteRecord{}, nil
	}
	return l.senadoVotes(ctx, code)
}

func (l *Legislative) findDeputy(ctx context.Context, name string) (*camaraDeputy, error) {
	params := url.Values{}
	params.Set("nome", name)
	params.Set("ordem", "ASC")
	params.Set("ordenarPor", "nome")

	var res camaraList[camaraDeputy]
	if err := l.deps.Client.GetJSON(ctx, l.camaraURL+"/deputados", params, &res); err != nil {
		return nil, fmt.Errorf("camara deputados: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, nil
	}
	for i := range res.Data {
		if strings.EqualFold(res.Data[i].Name, name) {
			return &res.Data[i], nil
		}
	}
	return &res.Data[0], nil
}

func (l *Legislative) camaraVotes(ctx context.Context, deputyID int) ([]model.VoteRecord, error) {
	params := url.Values{}
	params.Set("ordem", "DESC")
	params.Set("ordenarPor", "dataHoraRegistro")
	params.Set("itens", fmt.Sprint(recentVotings))

	var votings camaraList[camaraVoting]
	if err := l.deps.Client.GetJSON(ctx, l.camaraURL+"/votacoes", params, &votings); err != nil {
		return nil, fmt.Errorf("camara votacoes: %w", err)
	}

	slots := make([]*model.VoteRecord, len(votings.Data))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, v := range votings.Data {
		i, v := i, v
		g.Go(func() error {
			// a single votação failing does not sink the lookup
			rec, err := l.camaraVote(gctx, v, deputyID)
			if err != nil {
				l.deps.Logger.Debug("skipping votacao", zap.String("id", string(v.ID)), zap.Error(err))
				return nil
			}
			slots[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	votes := make([]model.VoteRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			votes = append(votes, *rec)
		}
	}
	return votes, nil
}

func (l *Legislative) camaraVote(ctx context.Context, v camaraVoting, deputyID int) (*model.VoteRecord, error) {
	base := l.camaraURL + "/votacoes/" + url.PathEscape(string(v.ID))

	var ballots camaraList[camaraVote]
	if err := l.deps.Client.GetJSON(ctx, base+"/votos", nil, &ballots); err != nil {
		return nil, err
	}

	var mine *camaraVote
	for i := range ballots.Data {
		if ballots.Data[i].deputy().ID == deputyID {
			mine = &ballots.Data[i]
			break
		}
	}
	if mine == nil {
		return nil, nil
	}

	rec := &model.VoteRecord{
		BillID:      string(v.ID),
		Date:        v.RecordedAt,
		Choice:      mine.Choice,
		Description: v.Description,
		House:       model.HouseCamara,
	}
	if p := v.Proposal; p != nil {
		rec.BillID = fmt.Sprintf("%s %s/%s", p.Type, p.Number, p.Year)
		if p.Summary != "" {
			rec.Description = p.Summary
		}
	}
	if rec.Description == "" {
		rec.Description = "Sem ementa disponível"
	}

	party := mine.deputy().Party
	var orientations camaraList[camaraOrientation]
	if err := l.deps.Client.GetJSON(ctx, base+"/orientacoes", nil, &orientations); err == nil {
		for _, o := range orientations.Data {
			if party != "" && strings.EqualFold(o.Party, party) {
				rec.PartyOrientation = o.Orientation
				break
			}
		}
	}
	rec.Rebellious = (rec.Choice == "Sim" && rec.PartyOrientation == "Não") ||
		(rec.Choice == "Não" && rec.PartyOrientation == "Sim")

	return rec, nil
}

func (l *Legislative) findSenator(ctx context.Context, name string) (string, error) {
	var res senadoList
	if err := l.deps.Client.GetJSON(ctx, l.senadoURL+"/lista/atual", nil, &res); err != nil {
		return "", fmt.Errorf("senado lista: %w", err)
	}

	needle := strings.ToLower(name)
	for _, m := range res.Current.Members.Member {
		if strings.Contains(strings.ToLower(m.ID.Name), needle) {
			return string(m.ID.Code), nil
		}
	}
	return "", nil
}

func (l *Legislative) senadoVotes(ctx context.Context, code string) ([]model.VoteRecord, error) {
	var res senadoVotes
	endpoint := l.senadoURL + "/" + url.PathEscape(code) + "/votacoes"
	if err := l.deps.Client.GetJSON(ctx, endpoint, nil, &res); err != nil {
		return nil, fmt.Errorf("senado votacoes: %w", err)
	}

	raw := res.Voting.Member.Votes.Vote
	votes := make([]model.VoteRecord, 0, len(raw))
	for _, v := range raw {
		summary := v.Matter.Summary
		if summary == "" {
			summary = "Sem ementa disponível"
		}
		votes = append(votes, model.VoteRecord{
			BillID:      fmt.Sprintf("%s %s/%s", v.Matter.Type, v.Matter.Number, v.Matter.Year),
			Date:        v.Date,
			Choice:      v.Choice,
			Description: summary,
			House:       model.HouseSenado,
		})
	}
	return votes, nil
}

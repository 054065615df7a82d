package sheets

import "strings"

// synonyms maps each canonical field to the header spellings seen across
// exported sheets (Meta exports in English and Portuguese, with and without
// underscores). Order matters: earlier synonyms are preferred.
var synonyms = map[string][]string{
	"date":         {"date", "data", "day", "dia", "reporting_date"},
	"accountName":  {"account name", "account_name", "nome da conta", "conta"},
	"campaignName": {"campaign name", "campaign_name", "nome da campanha", "campanha", "campaign"},
	"adsetName":    {"ad set name", "adset name", "adset_name", "nome do conjunto de anúncios", "nome do conjunto de anuncios", "conjunto de anúncios", "conjunto de anuncios", "adset"},
	"adName":       {"ad name", "ad_name", "nome do anúncio", "nome do anuncio", "anúncio", "anuncio"},

	"spend":            {"amount spent", "amount_spent", "spend", "valor usado", "valor gasto", "investimento", "custo", "cost"},
	"impressions":      {"impressions", "impressões", "impressoes"},
	"clicks":           {"clicks (all)", "clicks_all", "cliques (todos)", "cliques", "clicks"},
	"linkClicks":       {"link clicks", "link_clicks", "cliques no link", "unique link clicks"},
	"landingPageViews": {"landing page views", "landing_page_views", "visualizações da página de destino", "visualizacoes da pagina de destino"},
	"leads":            {"leads", "cadastros", "registros concluídos", "registros concluidos", "lead"},
	"reach":            {"reach", "alcance"},
	"frequency":        {"frequency", "frequência", "frequencia"},
	"purchases":        {"purchases", "compras", "purchase"},
	"purchaseValue":    {"purchases conversion value", "purchase conversion value", "purchase_value", "valor de conversão de compras", "valor de conversao de compras", "valor de compras"},
	"checkouts":        {"checkouts initiated", "initiate checkout", "checkouts_initiated", "finalizações de compra iniciadas", "finalizacoes de compra iniciadas", "checkout"},
	"addToCart":        {"adds to cart", "add to cart", "add_to_cart", "adições ao carrinho", "adicoes ao carrinho"},
	"pageEngagement":   {"page engagement", "page_engagement", "envolvimento com a página", "envolvimento com a pagina"},
	"postEngagement":   {"post engagement", "post_engagement", "envolvimento com a publicação", "envolvimento com a publicacao"},
	"postReactions":    {"post reactions", "post_reactions", "reações", "reacoes"},
	"comments":         {"post comments", "comments", "comentários", "comentarios"},
	"shares":           {"post shares", "shares", "compartilhamentos"},
	"videoViews":       {"video plays", "3-second video plays", "video_views", "reproduções de vídeo", "reproducoes de video", "video views"},
	"videoViews25":     {"video plays at 25%", "video_views_25", "reproduções de vídeo até 25%", "reproducoes de video ate 25%"},
	"videoViews50":     {"video plays at 50%", "video_views_50", "reproduções de vídeo até 50%", "reproducoes de video ate 50%"},
	"videoViews75":     {"video plays at 75%", "video_views_75", "reproduções de vídeo até 75%", "reproducoes de video ate 75%"},
	"videoViews100":    {"video plays at 100%", "video_views_100", "reproduções de vídeo até 100%", "reproducoes de video ate 100%"},
	"profileVisits":    {"profile visits", "profile_visits", "visitas ao perfil"},
	"follows":          {"follows or likes", "follows", "seguidores", "curtidas na página", "curtidas na pagina"},
	"results":          {"results", "resultados"},

	"costPerResult": {"cost per result", "cost_per_result", "custo por resultado"},
	"ctr":           {"ctr (link click-through rate)", "ctr (all)", "ctr"},
	"cpc":           {"cpc (cost per link click)", "cpc (all)", "custo por clique", "cpc"},
	"cpm":           {"cpm (cost per 1,000 impressions)", "custo por 1.000 impressões", "custo por 1.000 impressoes", "cpm"},
	"cpl":           {"cost per lead", "custo por lead", "custo por cadastro", "cpl"},
	"roas":          {"purchase roas", "roas", "retorno sobre o investimento em publicidade"},
}

// FieldNames lists every canonical field the mapper knows how to extract, in
// a stable order used for the "columns found" diagnostic.
var FieldNames = []string{
	"date", "accountName", "campaignName", "adsetName", "adName",
	"spend", "impressions", "clicks", "linkClicks", "landingPageViews",
	"leads", "reach", "frequency", "purchases", "purchaseValue",
	"checkouts", "addToCart", "pageEngagement", "postEngagement",
	"postReactions", "comments", "shares", "videoViews", "videoViews25",
	"videoViews50", "videoViews75", "videoViews100", "profileVisits",
	"follows", "results", "costPerResult", "ctr", "cpc", "cpm", "cpl", "roas",
}

// FindColumnIndex resolves a canonical field against an arbitrary header row.
// Phase 1 looks for a case-insensitive exact match of any synonym; phase 2
// falls back to a substring match (header contains synonym), scanning headers
// left to right, first match wins. Returns -1 when no synonym matches, which
// callers treat as "column absent", not an error.
func FindColumnIndex(headers []string, field string) int {
	syns, ok := synonyms[field]
	if !ok {
		return -1
	}
	for i, h := range headers {
		h = strings.TrimSpace(h)
		for _, syn := range syns {
			if strings.EqualFold(h, syn) {
				return i
			}
		}
	}
	for i, h := range headers {
		lh := strings.ToLower(strings.TrimSpace(h))
		for _, syn := range syns {
			if strings.Contains(lh, strings.ToLower(syn)) {
				return i
			}
		}
	}
	return -1
}

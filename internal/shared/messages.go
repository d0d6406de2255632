package shared

// Messages holds the user-facing strings shown for validation and service failures.
type Messages struct {
	InvalidLink    string
	SearchFailed   string
	DownloadFailed string
	InternalError  string
	EmptyPlaylist  string
	InvalidBody    string
	StaleDownload  string
	RateLimited    string
	Unknown        string
}

var catalogs = map[string]Messages{
	"en": {
		InvalidLink:    "Invalid link. Please enter a valid playlist URL.",
		SearchFailed:   "Failed to search playlist",
		DownloadFailed: "Failed to download playlist",
		InternalError:  "Internal server error",
		EmptyPlaylist:  "The playlist has no tracks to download",
		InvalidBody:    "Invalid request body",
		StaleDownload:  "The playlist changed during the download; the archive was discarded",
		RateLimited:    "Too many requests, try again shortly",
		Unknown:        "Unknown error",
	},
	"pt-BR": {
		InvalidLink:    "URL inválida. Por favor, insira uma URL válida do Spotify.",
		SearchFailed:   "Erro ao buscar playlist",
		DownloadFailed: "Erro ao baixar playlist",
		InternalError:  "Erro interno do servidor",
		EmptyPlaylist:  "A playlist não possui músicas para baixar",
		InvalidBody:    "Corpo da requisição inválido",
		StaleDownload:  "A playlist mudou durante o download; o arquivo foi descartado",
		RateLimited:    "Muitas requisições, tente novamente em instantes",
		Unknown:        "Erro desconhecido",
	},
}

// MessagesFor returns the catalog for locale, defaulting to English.
func MessagesFor(locale string) Messages {
	if m, ok := catalogs[locale]; ok {
		return m
	}
	return catalogs["en"]
}

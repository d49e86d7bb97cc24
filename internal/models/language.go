package models

type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Flag       string `json:"flag"`
}

type LanguageGroup struct {
	Name      string     `json:"name"`
	Languages []Language `json:"languages"`
}

type LanguageRequest struct {
	Language string `json:"language"`
}

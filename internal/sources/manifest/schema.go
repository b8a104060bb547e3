package manifest

// Manifest is the top-level structure of an archive manifest file:
//
//	originals:
//	  - url: http://example.com/
//	    mementos:
//	      - location: /web/20100101000000/http://example.com/
//	        datetime: "Fri, 01 Jan 2010 00:00:00 GMT"
type Manifest struct {
	Originals []Original `yaml:"originals"`
}

// Original groups the captures of one original resource.
type Original struct {
	URL      string  `yaml:"url"`
	Mementos []Entry `yaml:"mementos"`
}

// Entry is one capture. Datetime accepts RFC 3339 or any HTTP-date form.
type Entry struct {
	ID       string `yaml:"id,omitempty"`
	Location string `yaml:"location"`
	Datetime string `yaml:"datetime"`
}

/*
DESCRIPTION
  category.go provides the table of YouTube video categories and lookup of
  category IDs by name.

LICENSE
  Copyright (C) 2025 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is a YouTube video category.
type Category struct {
	Name string
	ID   int
}

// Categories lists the assignable video categories, in ID order.
var Categories = []Category{
	{"Film & Animation", 1},
	{"Autos & Vehicles", 2},
	{"Music", 10},
	{"Pets & Animals", 15},
	{"Sports", 17},
	{"Short Movies", 18},
	{"Travel & Events", 19},
	{"Gaming", 20},
	{"Videoblogging", 21},
	{"People & Blogs", 22},
	{"Comedy", 23},
	{"Entertainment", 24},
	{"News & Politics", 25},
	{"Howto & Style", 26},
	{"Education", 27},
	{"Science & Technology", 28},
	{"Nonprofits & Activism", 29},
	{"Movies", 30},
	{"Anime/Animation", 31},
	{"Action/Adventure", 32},
	{"Classics", 33},
	{"Documentary", 35},
	{"Drama", 36},
	{"Family", 37},
	{"Foreign", 38},
	{"Horror", 39},
	{"Sci-Fi/Fantasy", 40},
	{"Thriller", 41},
	{"Shorts", 42},
	{"Shows", 43},
	{"Trailers", 44},
}

// CategoryNames returns the names of all categories, in ID order.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}

// CategoryID returns the ID of the category with the given name, or the
// given ID if it is a known category ID. Names are matched without regard
// to case. A *ValidationError listing the valid names is returned
// otherwise.
func CategoryID(genre string) (int, error) {
	id, idErr := strconv.Atoi(genre)
	for _, c := range Categories {
		if strings.EqualFold(c.Name, genre) || (idErr == nil && c.ID == id) {
			return c.ID, nil
		}
	}
	return 0, &ValidationError{Field: "genre", Value: genre, Valid: CategoryNames()}
}

// ValidationError is returned for a value that is not one of a fixed set
// of accepted values.
type ValidationError struct {
	Field string
	Value string
	Valid []string
}

func (e *ValidationError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q, must be one of: %q", e.Field, e.Value, e.Valid)
}

package content

import "context"

// WordPress-shaped content nodes.

type FeaturedImage struct {
	Node *struct {
		SourceURL string `json:"sourceUrl"`
		AltText   string `json:"altText"`
	} `json:"node"`
}

type Post struct {
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Date          string         `json:"date"`
	Excerpt       string         `json:"excerpt,omitempty"`
	Content       string         `json:"content,omitempty"`
	FeaturedImage *FeaturedImage `json:"featuredImage,omitempty"`
}

type Term struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type postsData struct {
	Posts struct {
		Nodes []Post `json:"nodes"`
	} `json:"posts"`
}

const recentPostsQuery = `
  query RecentPosts($first: Int!) {
    posts(first: $first, where: { orderby: { field: DATE, order: DESC } }) {
      nodes {
        title
        slug
        date
        excerpt
        featuredImage {
          node {
            sourceUrl
            altText
          }
        }
      }
    }
  }
`

// RecentPosts returns the newest posts. Any failure yields an empty slice
// and the error for the fallback message.
func (c *Client) RecentPosts(ctx context.Context, first int) ([]Post, error) {
	var data postsData
	err := c.Query(ctx, recentPostsQuery, map[string]any{"first": first}, &data)
	if err != nil {
		return nil, err
	}
	return data.Posts.Nodes, nil
}

const postBySlugQuery = `
  query PostBySlug($slug: ID!) {
    post(id: $slug, idType: SLUG) {
      title
      slug
      date
      content
      featuredImage {
        node {
          sourceUrl
          altText
        }
      }
    }
  }
`

func (c *Client) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	var data struct {
		Post *Post `json:"post"`
	}
	err := c.Query(ctx, postBySlugQuery, map[string]any{"slug": slug}, &data)
	if err != nil {
		return nil, err
	}
	return data.Post, nil
}

const allPostsQuery = `
  query AllPosts {
    posts(first: 100, where: { orderby: { field: DATE, order: DESC } }) {
      nodes {
        title
        slug
        date
        excerpt
      }
    }
  }
`

// AllPosts returns the archive listing, newest first.
func (c *Client) AllPosts(ctx context.Context) ([]Post, error) {
	var data postsData
	if err := c.Query(ctx, allPostsQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.Posts.Nodes, nil
}

const postsByCategoryQuery = `
  query PostsByCategory($slug: String!) {
    posts(where: { categoryName: $slug, orderby: { field: DATE, order: DESC } }) {
      nodes {
        title
        slug
        date
        excerpt
      }
    }
  }
`

func (c *Client) PostsByCategory(ctx context.Context, slug string) ([]Post, error) {
	var data postsData
	err := c.Query(ctx, postsByCategoryQuery, map[string]any{"slug": slug}, &data)
	if err != nil {
		return nil, err
	}
	return data.Posts.Nodes, nil
}

const postsByTagQuery = `
  query PostsByTag($slug: String!) {
    posts(where: { tag: $slug, orderby: { field: DATE, order: DESC } }) {
      nodes {
        title
        slug
        date
        excerpt
      }
    }
  }
`

func (c *Client) PostsByTag(ctx context.Context, slug string) ([]Post, error) {
	var data postsData
	err := c.Query(ctx, postsByTagQuery, map[string]any{"slug": slug}, &data)
	if err != nil {
		return nil, err
	}
	return data.Posts.Nodes, nil
}

const categoriesQuery = `
  query Categories {
    categories(first: 50) {
      nodes {
        name
        slug
      }
    }
  }
`

func (c *Client) Categories(ctx context.Context) ([]Term, error) {
	var data struct {
		Categories struct {
			Nodes []Term `json:"nodes"`
		} `json:"categories"`
	}
	if err := c.Query(ctx, categoriesQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.Categories.Nodes, nil
}
